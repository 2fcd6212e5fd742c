package tool

import "strings"

// ConnectorTool describes a tool exposed by a connector.
type ConnectorTool struct {
	// OriginalName is the name the connector registered the tool under.
	OriginalName string

	// Description is optional; converters substitute a fallback when it
	// is empty.
	Description string

	// InputSchema describes the tool's parameters.
	InputSchema Schema

	// ConnectorID identifies the owning connector.
	ConnectorID string

	// ConnectorName is the human-facing connector name used as the
	// disambiguation prefix.
	ConnectorName string
}

// Name returns the disambiguated identifier advertised to models:
// connector name and original name joined and normalized, so tools with
// the same name on different connectors never collide.
func (t ConnectorTool) Name() string {
	return DisambiguatedName(t.ConnectorName, t.OriginalName)
}

// ID returns the stable tool identity "{connectorID}:{originalName}".
func (t ConnectorTool) ID() string {
	return t.ConnectorID + ":" + t.OriginalName
}

// DisambiguatedName derives the model-facing tool name: the connector name
// and original name are joined with "_", lowercased, and every run of
// non-alphanumeric bytes collapses to a single "_".
func DisambiguatedName(connectorName, originalName string) string {
	joined := strings.ToLower(connectorName + "_" + originalName)

	var b strings.Builder
	b.Grow(len(joined))
	pendingSep := false
	for _, r := range joined {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
