package tool

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestContent_ContentForLLM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content Content
		want    string
	}{
		{"text wins", Content{Text: "hi", JSON: []byte(`{"a":1}`)}, "hi"},
		{"json fallback", Content{JSON: []byte(`{"a":1}`)}, `{"a":1}`},
		{"image placeholder", Content{Image: []byte{0x89}, ImageMIMEType: "image/png"}, "[image: image/png]"},
		{"empty", Content{}, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.content.ContentForLLM(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContent_DisplaySummary_Truncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 500)
	c := Content{Text: long}

	summary := c.DisplaySummary()
	if utf8.RuneCountInString(summary) != displaySummaryLimit+1 {
		t.Errorf("summary length: got %d runes, want %d", utf8.RuneCountInString(summary), displaySummaryLimit+1)
	}
	if !strings.HasSuffix(summary, "…") {
		t.Error("expected ellipsis suffix")
	}

	// ContentForLLM must never truncate.
	if got := c.ContentForLLM(); got != long {
		t.Error("ContentForLLM truncated the content")
	}
}

func TestContent_DisplaySummary_ShortPassesThrough(t *testing.T) {
	t.Parallel()

	c := Content{Text: "short"}
	if got := c.DisplaySummary(); got != "short" {
		t.Errorf("got %q, want %q", got, "short")
	}
}

func TestOutcome_ExactlyOneSide(t *testing.T) {
	t.Parallel()

	ok := Success(Content{Text: "done"})
	if !ok.Succeeded() {
		t.Error("Success outcome should report Succeeded")
	}
	if _, has := ok.Content(); !has {
		t.Error("Success outcome should expose content")
	}
	if _, has := ok.Err(); has {
		t.Error("Success outcome must not expose an error")
	}

	fail := Failure(Error{Message: "boom", Retryable: true})
	if fail.Succeeded() {
		t.Error("Failure outcome should not report Succeeded")
	}
	if _, has := fail.Content(); has {
		t.Error("Failure outcome must not expose content")
	}
	e, has := fail.Err()
	if !has {
		t.Fatal("Failure outcome should expose an error")
	}
	if e.Message != "boom" || !e.Retryable {
		t.Errorf("error: got %+v", e)
	}
}

func TestOutcome_ContentForLLM(t *testing.T) {
	t.Parallel()

	if got := Success(Content{Text: "ok"}).ContentForLLM(); got != "ok" {
		t.Errorf("success: got %q", got)
	}
	if got := Failure(Error{Message: "nope"}).ContentForLLM(); got != "nope" {
		t.Errorf("failure: got %q", got)
	}
}
