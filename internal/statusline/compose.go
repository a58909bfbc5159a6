package statusline

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Span is a run of text sharing one style tag.
type Span struct {
	Text  string
	Style Style
}

// Line is a fully composed status line: an ordered list of styled
// spans. The zero value is an empty line.
type Line struct {
	Spans []Span
}

// Text returns the line's text with style tags stripped.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Width returns the line's visible width in display cells. East Asian
// wide runes count as two cells, combining marks as zero.
func (l Line) Width() int {
	w := 0
	for _, s := range l.Spans {
		w += runewidth.StringWidth(s.Text)
	}
	return w
}

// Empty reports whether the line holds no text at all.
func (l Line) Empty() bool {
	for _, s := range l.Spans {
		if s.Text != "" {
			return false
		}
	}
	return true
}

// ErrorLine builds the one-line diagnostic shown when a tick fails.
func ErrorLine(err error) Line {
	return Line{Spans: []Span{{Text: "statusline: " + err.Error(), Style: StyleAlert}}}
}

// Compose evaluates every descriptor in order and lays the results out
// as a single line bounded by width.
//
// Left-aligned segments are concatenated in registry order. When at
// least one right-aligned segment produced text, padding spaces follow
// the left group and the right group closes the line; with an empty
// right group no padding is emitted at all. Padding is
// max(0, width-left-right) measured in display cells, so a line that
// already overflows gets no padding but is never truncated.
//
// The first producer error aborts composition and is returned to the
// caller, which degrades the tick to a diagnostic line.
func Compose(descs []Descriptor, width int) (Line, error) {
	var left, right []Span
	leftWidth, rightWidth := 0, 0

	for _, d := range descs {
		seg, err := eval(d)
		if err != nil {
			return Line{}, err
		}
		if seg.Text == "" {
			continue
		}
		span := Span{Text: seg.Text, Style: seg.Style}
		if seg.Align == AlignRight {
			right = append(right, span)
			rightWidth += runewidth.StringWidth(seg.Text)
		} else {
			left = append(left, span)
			leftWidth += runewidth.StringWidth(seg.Text)
		}
	}

	spans := left
	if len(right) > 0 {
		if pad := width - leftWidth - rightWidth; pad > 0 {
			spans = append(spans, Span{Text: strings.Repeat(" ", pad)})
		}
		spans = append(spans, right...)
	}
	return Line{Spans: spans}, nil
}
