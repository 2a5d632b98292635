// Package lua hosts Lua plugins that add key bindings and modes.
//
// Each plugin runs in its own sandboxed gopher-lua state and owns one hive,
// named "plugin:<name>", ahead of the user and builtin hives. Unloading a
// plugin drops its hive and retracts the modes it registered.
//
// Plugins see a global keys table:
//
//	keys.map(modes, lhs, rhs, opts)  -- rhs is a key string or a function
//	keys.unmap(modes, lhs)           -- returns whether anything was removed
//	keys.mode(name, opts)            -- opts: char, bases, desc, insert, passthrough, nocount, hidden
//	keys.feed(keys, opts)            -- opts: noremap, silent
//	keys.push(mode)
//	keys.pop()
//	keys.current()                   -- name of the main mode
//	keys.log(msg)
//
// modes and lhs accept a string or a list of strings. Map options are desc,
// noremap, count, arg, motion and silent. A function rhs receives a table
// with keys, count, arg, motion, motion_count and macro. Returning a
// non-empty string fails the mapping with that message.
//
// A plugin may define a global on_unload function; it runs before the
// plugin's hive and modes are retracted.
package lua
