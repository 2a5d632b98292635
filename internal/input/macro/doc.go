// Package macro records typed keys into named slots and plays them back.
//
// Slots are named by a single character in [a-zA-Z0-9]. Upper-case names
// append to the matching lower-case slot. The pseudo-slot '@' stands for the
// slot played most recently.
//
// The Recorder is a dispatch hook: while recording it captures every key
// the processor sees that was not produced by a feed. The Player feeds a
// slot's keys back through the processor with remapping enabled, so a
// replayed "2dw" resolves exactly as the typed one did.
//
// Slots live in a Store. MemoryStore keeps them in process, FileStore in a
// JSON document and SQLiteStore in a sqlite database.
package macro
