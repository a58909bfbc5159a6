package editor

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/cjennings/adrenaline/internal/term"
)

// chromaStyleName selects the token palette for the text area.
const chromaStyleName = "monokai"

// styledRun is a run of line text drawn in one style.
type styledRun struct {
	text  string
	style term.Style
}

// highlight caches the detected filetype and per-line token styling for
// one buffer. Edits invalidate it; movement does not.
type highlight struct {
	mode string
	runs [][]styledRun // 0-indexed per buffer line
}

// highlightFor returns the highlight for b, computing it on demand.
func (e *Editor) highlightFor(b *Buffer) *highlight {
	if hl, ok := e.highlights[b]; ok {
		return hl
	}
	hl := newHighlight(b)
	e.highlights[b] = hl
	return hl
}

// newHighlight detects the buffer's lexer and tokenizes its content.
// Tokenization failure degrades to unstyled text; the mode is kept.
func newHighlight(b *Buffer) *highlight {
	text := b.Text()
	lexer := detectLexer(b.Name(), text)
	hl := &highlight{mode: modeName(lexer)}

	tokens, err := chroma.Tokenise(chroma.Coalesce(lexer), nil, text)
	if err != nil {
		return hl
	}

	style := styles.Get(chromaStyleName)
	hl.runs = make([][]styledRun, b.LineCount())

	lineNo := 0
	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		st := tokenStyle(style, tok.Type)
		for i, part := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				lineNo++
			}
			if part == "" || lineNo >= len(hl.runs) {
				continue
			}
			hl.runs[lineNo] = append(hl.runs[lineNo], styledRun{text: part, style: st})
		}
	}
	return hl
}

// lineRuns returns the styled runs for the 1-indexed line n. Lines the
// tokenizer did not cover render unstyled.
func (hl *highlight) lineRuns(b *Buffer, n int) []styledRun {
	if n >= 1 && n <= len(hl.runs) {
		return hl.runs[n-1]
	}
	if text := b.Line(n); text != "" {
		return []styledRun{{text: text}}
	}
	return nil
}

// detectLexer matches by filename first, then by content analysis.
func detectLexer(name, text string) chroma.Lexer {
	if l := lexers.Match(name); l != nil {
		return l
	}
	if l := lexers.Analyse(text); l != nil {
		return l
	}
	return lexers.Fallback
}

// modeName is the lowercased lexer name; the fallback lexer reads as
// plain text.
func modeName(l chroma.Lexer) string {
	name := strings.ToLower(l.Config().Name)
	if name == "fallback" || name == "plaintext" {
		return "text"
	}
	return name
}

// tokenStyle maps a chroma style entry onto a terminal style.
func tokenStyle(style *chroma.Style, t chroma.TokenType) term.Style {
	entry := style.Get(t)
	var st term.Style
	if entry.Colour.IsSet() {
		st.FG = term.RGB(entry.Colour.Red(), entry.Colour.Green(), entry.Colour.Blue())
	}
	if entry.Bold == chroma.Yes {
		st.Attrs |= term.AttrBold
	}
	if entry.Italic == chroma.Yes {
		st.Attrs |= term.AttrItalic
	}
	if entry.Underline == chroma.Yes {
		st.Attrs |= term.AttrUnderline
	}
	return st
}
