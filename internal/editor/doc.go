// Package editor implements the host editor: line buffers with a
// cursor, a screen layout, key handling, and syntax highlighting.
//
// # Layout
//
// The screen is divided into three regions, top to bottom:
//
//	+----------------------------+
//	| text area                  |
//	| ...                        |
//	+----------------------------+
//	| permanent status bar       |  hidden while the render loop runs
//	+----------------------------+
//	| echo line                  |  editor messages / composed line
//	+----------------------------+
//
// The echo line is shared: editor messages (save errors, read-only
// notices) are foreign content that blocks the render loop, and any key
// event clears them. The permanent status bar row is yielded to the
// text area while suppressed.
//
// # Concurrency
//
// The Editor belongs to the event loop goroutine; it implements
// statusline.State and statusline.Host under that single-goroutine
// model. The only goroutines it spawns are timer tickers, and those
// interact with it exclusively by posting callbacks through the
// screen's PostFunc.
package editor
