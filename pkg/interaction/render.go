package interaction

import "context"

// Target says where a Render is applied.
type Target int

const (
	// TargetOriginal edits the message the event came from.
	TargetOriginal Target = iota
	// TargetNew posts a new message in the event's channel.
	TargetNew
	// TargetEphemeral replies privately to the acting user.
	TargetEphemeral
)

func (t Target) String() string {
	switch t {
	case TargetOriginal:
		return "original"
	case TargetNew:
		return "new"
	case TargetEphemeral:
		return "ephemeral"
	default:
		return "unknown"
	}
}

// Preserve marks parts of the existing message a Render leaves untouched.
type Preserve uint8

const (
	PreserveContent Preserve = 1 << iota
	PreserveEmbeds
	PreserveComponents
)

// Has reports whether every flag in f is set.
func (p Preserve) Has(f Preserve) bool {
	return p&f == f
}

// Render is a platform-neutral message body. Fields that are zero and not
// preserved are cleared when editing an existing message.
type Render struct {
	Content    string
	Embeds     []Embed
	Components []Row
	Files      []File
	Preserve   Preserve
}

// Embed is a rich message card.
type Embed struct {
	Title        string
	Description  string
	URL          string
	Color        int
	Author       *EmbedAuthor
	Footer       string
	ImageURL     string
	ThumbnailURL string
	Fields       []EmbedField
	Timestamp    string
}

type EmbedAuthor struct {
	Name    string
	IconURL string
	URL     string
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Row is one row of message components: either a select menu or buttons.
type Row struct {
	Select  *SelectMenu
	Buttons []Button
}

type SelectMenu struct {
	CustomID    string
	Placeholder string
	Options     []SelectOption
}

type SelectOption struct {
	Label       string
	Value       string
	Description string
	Emoji       string
	Default     bool
}

type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

type Button struct {
	CustomID string
	Label    string
	Emoji    string
	Style    ButtonStyle
}

// File is an attachment, e.g. a rendered chart.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// MessageRef identifies a message produced by ApplyRender.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// Renderer displays a Render on the chat platform. ev carries the platform
// event being answered; it is the zero Event for command responses.
type Renderer interface {
	ApplyRender(ctx context.Context, ev Event, target Target, r Render) (MessageRef, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, ev Event, target Target, r Render) (MessageRef, error)

func (f RendererFunc) ApplyRender(ctx context.Context, ev Event, target Target, r Render) (MessageRef, error) {
	return f(ctx, ev, target, r)
}

// ExitCustomID is the custom ID of the exit control. Adapters map presses
// of it to KindCancel events.
const ExitCustomID = "exit"

// ExitRow returns a button row holding the exit control.
func ExitRow() Row {
	return Row{Buttons: []Button{{
		CustomID: ExitCustomID,
		Label:    "Exit",
		Emoji:    "⬅️",
		Style:    ButtonSecondary,
	}}}
}

// Notice is a short text-only Render.
func Notice(text string) Render {
	return Render{Content: text}
}

// closedRender keeps the message text and strips its components.
func closedRender() Render {
	return Render{Preserve: PreserveContent | PreserveEmbeds}
}
