// Package hive stores key bindings.
//
// A Hive is a named collection of bindings scoped by mode. For each mode it
// keeps the binding list together with three indexes, rebuilt whenever that
// mode's list changes:
//
//   - exact: canonical name to binding
//   - candidates: strict prefix to the number of names it begins
//   - hard candidates: the same count, ignoring pass-through bindings
//
// A Registry orders hives by priority. The first hive with an exact match
// wins, while candidate counts are summed over every hive, so a prefix in a
// low-priority hive still makes a shorter match in a high-priority hive
// ambiguous.
package hive
