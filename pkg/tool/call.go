package tool

import "time"

// noResponse replaces an empty assistant text in a recorded round so that
// serialized history never carries an ambiguous empty string.
const noResponse = "no response"

// Call is one tool invocation requested by a model.
type Call struct {
	// ID is the call identity. Providers that supply no identifier get
	// one minted at parse time.
	ID string

	// ToolName is the disambiguated name advertised to the model,
	// e.g. "github_search".
	ToolName string

	// ConnectorID identifies the connector that owns the tool.
	ConnectorID string

	// OriginalToolName is the name the connector registered the tool
	// under, before disambiguation.
	OriginalToolName string

	// Arguments are the canonical call arguments.
	Arguments map[string]Value

	// RequestedAt is when the call was parsed from the provider payload.
	RequestedAt time.Time
}

// Equal reports call equality for deduplication: ID, ToolName and
// ConnectorID together.
func (c Call) Equal(other Call) bool {
	return c.ID == other.ID &&
		c.ToolName == other.ToolName &&
		c.ConnectorID == other.ConnectorID
}

// Result is the outcome of executing one call.
type Result struct {
	// CallID identifies the Call this result answers.
	CallID string

	// ToolName mirrors the call's disambiguated name.
	ToolName string

	// Outcome carries success content or the failure.
	Outcome Outcome

	// Duration is wall-clock time from dispatch to resolution.
	Duration time.Duration

	// CompletedAt is when the result was produced.
	CompletedAt time.Time
}

// ExecutionRound records one generation→tools→results cycle.
type ExecutionRound struct {
	Calls   []Call
	Results []Result

	// AssistantResponse is the partial natural-language text the model
	// emitted before issuing the round's calls. Never empty: see
	// NewExecutionRound.
	AssistantResponse string
}

// NewExecutionRound builds a round record, normalizing an empty assistant
// text to "no response".
func NewExecutionRound(calls []Call, results []Result, assistantText string) ExecutionRound {
	if assistantText == "" {
		assistantText = noResponse
	}
	return ExecutionRound{
		Calls:             calls,
		Results:           results,
		AssistantResponse: assistantText,
	}
}
