package statusline

import "fmt"

// Producer supplies the text for a single fragment.
//
// Produce returns the fragment's current value. An empty string means
// the fragment is absent this tick: it contributes nothing to the
// composed line, not even its Pre/Post decorations. A non-nil error
// marks a producer failure; the render loop contains it and degrades
// the tick to a diagnostic line.
type Producer interface {
	Produce() (string, error)
}

// ProducerFunc adapts a plain function to the Producer interface.
type ProducerFunc func() (string, error)

// Produce calls the wrapped function.
func (f ProducerFunc) Produce() (string, error) { return f() }

// Static returns a producer that always yields the same text.
func Static(text string) Producer {
	return ProducerFunc(func() (string, error) { return text, nil })
}

// Align selects which side of the composed line a fragment lands on.
type Align int

const (
	// AlignLeft places the fragment in the left-justified group.
	AlignLeft Align = iota
	// AlignRight places the fragment in the right-justified group.
	AlignRight
)

// String returns the alignment name used in configuration files.
func (a Align) String() string {
	if a == AlignRight {
		return "right"
	}
	return "left"
}

// Style is a cosmetic tag attached to a fragment's rendered text. Tags
// carry no behavioral contract: hosts map the tags they know to
// concrete display styles and fall back to the default style for the
// rest.
type Style string

// Styles the bundled editor host maps to palette entries.
// Configurations may use any tag; these are the ones with defaults.
const (
	StyleDefault Style = ""
	StyleDim     Style = "dim"
	StyleAccent  Style = "accent"
	StyleAlert   Style = "alert"
)

// Descriptor describes one fragment: the producer that supplies its
// value and the decoration applied around it. Descriptors are value
// types; the registry hands out copies, so a descriptor cannot change
// under a tick that is evaluating it.
type Descriptor struct {
	// Producer supplies the fragment value. Required.
	Producer Producer

	// Pre and Post are literal strings placed immediately before and
	// after the formatted value. Post defaults to a single separating
	// space.
	Pre  string
	Post string

	// Format is the fmt template applied to the produced value.
	// Defaults to "%s".
	Format string

	// Style is the cosmetic tag covering the whole rendered span,
	// Pre and Post included.
	Style Style

	// Align selects the left or right group. Defaults to AlignLeft.
	Align Align
}

// Option configures a Descriptor.
type Option func(*Descriptor)

// WithPre sets the literal prefix.
func WithPre(s string) Option { return func(d *Descriptor) { d.Pre = s } }

// WithPost sets the literal suffix, replacing the default single space.
func WithPost(s string) Option { return func(d *Descriptor) { d.Post = s } }

// WithFormat sets the fmt template applied to the produced value.
func WithFormat(s string) Option { return func(d *Descriptor) { d.Format = s } }

// WithStyle sets the cosmetic style tag.
func WithStyle(s Style) Option { return func(d *Descriptor) { d.Style = s } }

// WithAlign sets the alignment group.
func WithAlign(a Align) Option { return func(d *Descriptor) { d.Align = a } }

// AlignedRight places the fragment in the right-justified group.
func AlignedRight() Option { return WithAlign(AlignRight) }

// New builds a Descriptor for the given producer with the documented
// defaults applied.
func New(p Producer, opts ...Option) Descriptor {
	d := Descriptor{
		Producer: p,
		Post:     " ",
		Format:   "%s",
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Segment is the evaluated form of one fragment for one tick. An
// absent fragment evaluates to an empty Text.
type Segment struct {
	Align Align
	Text  string
	Style Style
}

// eval turns a descriptor into its segment for this tick.
//
// An absent value (empty string, or a nil producer) yields an empty
// segment: Pre, Post and Format are not applied, so absent fragments
// leave no stray separators behind. A present value renders as
// Pre + Format(value) + Post with the descriptor's style spanning the
// whole result. Producer errors are returned to the caller, which
// degrades the tick; eval never writes to the display itself.
func eval(d Descriptor) (Segment, error) {
	if d.Producer == nil {
		return Segment{Align: d.Align}, nil
	}
	value, err := d.Producer.Produce()
	if err != nil {
		return Segment{}, err
	}
	if value == "" {
		return Segment{Align: d.Align}, nil
	}
	format := d.Format
	if format == "" {
		format = "%s"
	}
	return Segment{
		Align: d.Align,
		Text:  d.Pre + fmt.Sprintf(format, value) + d.Post,
		Style: d.Style,
	}, nil
}
