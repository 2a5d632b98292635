// Package config loads keyhive settings from a TOML file.
//
// Settings cover sequence timeouts, which modes pass unknown keys to the
// application, per-site pass keys, the mapping leader, logging and where
// macros are stored:
//
//	timeout = true
//	timeoutlen = 1000
//	report_unknown = false
//	mapleader = ","
//	log_level = "info"
//	mappings = ["mappings.yaml"]
//	plugins = ["plugins/tabs.lua"]
//
//	[passunknown]
//	insert = true
//
//	[passkeys]
//	"mail.*" = ["j", "k", "gg"]
//
//	[macros]
//	store = "sqlite"
//	path = "macros.db"
//
// Relative paths resolve against the directory holding the file.
// KEYHIVE_LOG_LEVEL, KEYHIVE_TIMEOUTLEN, KEYHIVE_MACRO_STORE and
// KEYHIVE_MACRO_PATH override the file.
//
// A Settings value is safe for concurrent use; Watcher reloads it in place
// when the file changes.
package config
