package tool

import (
	"fmt"
	"unicode/utf8"
)

// displaySummaryLimit caps DisplaySummary output. ContentForLLM is never
// truncated; only the UI/audit summary is.
const displaySummaryLimit = 200

// Content is the payload of a successful tool execution. Any combination
// of the fields may be set; ContentForLLM picks the best textual form.
type Content struct {
	// Text is the primary textual output.
	Text string

	// JSON is raw structured output when the tool returned data rather
	// than prose.
	JSON []byte

	// Image holds raw image bytes with ImageMIMEType describing them.
	Image         []byte
	ImageMIMEType string
}

// ContentForLLM returns the representation that is threaded back into the
// model's conversation: text if present, otherwise raw JSON as text,
// otherwise an image placeholder, otherwise the empty string.
func (c Content) ContentForLLM() string {
	if c.Text != "" {
		return c.Text
	}
	if len(c.JSON) > 0 {
		return string(c.JSON)
	}
	if len(c.Image) > 0 {
		return fmt.Sprintf("[image: %s]", c.ImageMIMEType)
	}
	return ""
}

// DisplaySummary returns a short form for UI and audit surfaces, truncated
// at displaySummaryLimit runes with an ellipsis.
func (c Content) DisplaySummary() string {
	s := c.ContentForLLM()
	if utf8.RuneCountInString(s) <= displaySummaryLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:displaySummaryLimit]) + "…"
}

// Error describes a failed tool execution.
type Error struct {
	// Message is the human-readable failure description. It is what the
	// model sees when a failure flows back into the conversation.
	Message string

	// Retryable reports whether the caller may reasonably retry the call.
	// The core never retries on its own.
	Retryable bool
}

func (e Error) Error() string { return e.Message }

// Outcome is the tagged result of a tool execution: exactly one of
// content or error is observable at any time.
type Outcome struct {
	content *Content
	err     *Error
}

// Success wraps content in a successful outcome.
func Success(c Content) Outcome {
	return Outcome{content: &c}
}

// Failure wraps an error in a failed outcome.
func Failure(e Error) Outcome {
	return Outcome{err: &e}
}

// Succeeded reports whether the outcome carries content.
func (o Outcome) Succeeded() bool { return o.content != nil }

// Content returns the success payload, or false when the outcome is a
// failure.
func (o Outcome) Content() (Content, bool) {
	if o.content == nil {
		return Content{}, false
	}
	return *o.content, true
}

// Err returns the failure payload, or false when the outcome is a success.
func (o Outcome) Err() (Error, bool) {
	if o.err == nil {
		return Error{}, false
	}
	return *o.err, true
}

// ContentForLLM returns the text to feed back to the model: the content's
// best textual form on success, the error message on failure.
func (o Outcome) ContentForLLM() string {
	if o.content != nil {
		return o.content.ContentForLLM()
	}
	if o.err != nil {
		return o.err.Message
	}
	return ""
}
