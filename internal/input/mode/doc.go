// Package mode provides the mode registry and the mode stack.
//
// Modes form a DAG: each mode names its bases, and a mode "is" every mode
// in its transitive closure. Bindings registered for a base apply to all
// modes built on it, so a binding in "command" is active in "normal" and
// "visual".
//
// # Mode Stack
//
// The Stack holds frames. Each frame records a main mode, a mask of
// extended modes, hook parameters and the values of bound properties saved
// when the frame was pushed:
//
//	push(insert)         pop()
//	┌─────────┐          ┌─────────┐
//	│ insert  │ ───────▶ │ normal  │  saved values restored
//	│ normal  │          └─────────┘
//	└─────────┘
//
// Transitions run hooks synchronously. A hook that tries to start another
// transition gets ErrReentrantTransition and the stack is left as it was.
package mode
