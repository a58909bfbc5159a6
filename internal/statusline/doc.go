// Package statusline renders a compact, configurable status line into
// a host editor's transient message line instead of a fixed-height
// permanent status bar.
//
// Two pieces cooperate:
//
//   - A Registry of fragment Descriptors. Each tick every fragment is
//     evaluated (Producer -> optional text), decorated (Pre, Format,
//     Post, Style) and placed in a left- or right-justified group;
//     Compose joins the groups into one Line padded to the display
//     width.
//   - A Loop that decides when to compose: a recurring host timer and
//     the host's focus-change hook both trigger ticks. A tick is
//     skipped while the transient line holds foreign content, and any
//     failure during a tick degrades to a one-line deduplicated
//     diagnostic instead of stopping the loop.
//
// The package is host-agnostic: everything it needs from the editor
// arrives through the narrow State, Host and BranchProvider
// interfaces. All callbacks run on the host's single cooperative event
// loop, so ticks never interleave and the core keeps no locks.
package statusline
