// Package key provides key event types and the canonical key notation.
//
// Keys are written in angle-bracket notation:
//
//   - Plain characters: "a", "A", "1", "@"
//   - Named keys: "<Esc>", "<Return>", "<Tab>", "<Space>", "<lt>"
//   - Modified keys: "<C-a>", "<A-x>", "<M-Left>", "<C-S-A>"
//
// Modifiers are always emitted in the order C-, A-, M-, S-. Synonyms such as
// "<CR>" and "<Enter>" collapse to "<Return>". A bracketed form that does not
// name a key is taken literally, so "<foo>" reads as "<lt>foo>".
//
// Canonicalize is idempotent, and for any key string K,
// Canonicalize(Stringify(Parse(K))) == Canonicalize(K).
package key
