package interaction

// EventKind classifies an inbound UI event.
type EventKind int

const (
	KindSelection EventKind = iota
	KindButton
	// KindCancel is an exit control. It always ends the session.
	KindCancel
)

func (k EventKind) String() string {
	switch k {
	case KindSelection:
		return "selection"
	case KindButton:
		return "button"
	case KindCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Event is a UI event delivered by a chat platform adapter.
type Event struct {
	Kind      EventKind
	UserID    string
	Username  string
	GuildID   string
	ChannelID string
	MessageID string
	CustomID  string
	Values    []string

	// Raw is the platform's own event value, for the Renderer.
	Raw any
}

// Value returns the first selected value, or "".
func (e Event) Value() string {
	if len(e.Values) == 0 {
		return ""
	}
	return e.Values[0]
}
