// Package dispatch turns key events into executed bindings.
//
// A Processor reads one key.Event at a time. It accumulates a pending
// sequence and resolves it against the active modes of a mode.Stack and the
// hives of a hive.Registry. Each sequence either executes a binding, waits
// for more keys, or aborts.
//
// # Sequences
//
// Leading digits form a count when the main mode accepts one. A sequence
// that matches a binding exactly and cannot be extended executes at once. A
// sequence that is ambiguous starts a disambiguation timer from the
// Scheduler. When the timer fires, the longest exact match seen so far
// executes and the remaining keys are fed again.
//
// Bindings flagged hive.FlagArg take the next key as an argument.
// Bindings flagged hive.FlagMotion take an optional count and then one key.
//
// # Threading
//
// A Processor is not safe for concurrent use. Key events and timer callbacks
// must reach it on one goroutine, which is what Loop provides. Interrupt is
// the only method that may be called from elsewhere.
//
// # Feeding
//
// FeedKeys injects a key string through the same path as typed keys.
// Macros, repeat and remapped bindings use it. Typed keys that arrive while
// a feed is running are queued and delivered in order when it finishes. The
// cancel key interrupts the feed instead.
package dispatch
