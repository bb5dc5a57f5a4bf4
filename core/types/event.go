package types

// Event represents a typed event emitted by a program during an instruction.
// Events only leave the runtime once the transaction that produced them has
// been committed.
type Event struct {
	Type       string            `json:"type"`
	Program    string            `json:"program,omitempty"`
	Attributes map[string]string `json:"attributes"`
}

// EventType satisfies events.Event.
func (e *Event) EventType() string {
	if e == nil {
		return ""
	}
	return e.Type
}

// Attr returns the named attribute or the empty string.
func (e *Event) Attr(key string) string {
	if e == nil || e.Attributes == nil {
		return ""
	}
	return e.Attributes[key]
}
