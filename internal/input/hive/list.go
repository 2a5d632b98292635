package hive

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/dshills/keyhive/internal/input/mode"
)

// ListOptions filters a listing.
type ListOptions struct {
	// Filter keeps bindings whose first name equals it. With Fuzzy, it is
	// matched as a fuzzy pattern against names and descriptions.
	Filter string
	Fuzzy  bool

	// Hives restricts the listing. Nil means all hives.
	Hives []*Hive

	// UserOnly keeps only bindings flagged as user-defined.
	UserOnly bool
}

// Entry is one row of a mapping listing.
type Entry struct {
	Modes       string
	Name        string
	Names       []string
	Hive        string
	Description string
	RHS         string
	NoRemap     bool
	Binding     *Binding
}

// List returns the bindings present in every one of modes, grouped by hive
// in priority order and sorted by name within a hive.
func (r *Registry) List(modes []*mode.Mode, opts ListOptions) []Entry {
	if len(modes) == 0 {
		return nil
	}
	hives := opts.Hives
	if hives == nil {
		hives = r.Hives()
	}
	tag := modeTags(modes)

	var out []Entry
	for _, h := range hives {
		var rows []Entry
		for _, b := range h.Bindings(modes[0]) {
			if opts.UserOnly && !b.Has(FlagUser) {
				continue
			}
			if !inAllModes(h, b, modes[1:]) {
				continue
			}
			rows = append(rows, Entry{
				Modes:       tag,
				Name:        b.Name(),
				Names:       b.Names(),
				Hive:        h.Name(),
				Description: b.Description,
				RHS:         b.RHS,
				NoRemap:     b.Has(FlagNoRemap),
				Binding:     b,
			})
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
		out = append(out, rows...)
	}

	if opts.Filter == "" {
		return out
	}
	if opts.Fuzzy {
		return fuzzyFilter(out, opts.Filter)
	}
	filtered := out[:0]
	for _, e := range out {
		if e.Name == opts.Filter {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// inAllModes reports whether b, or an equivalent user mapping, is bound in
// each of modes.
func inAllModes(h *Hive, b *Binding, modes []*mode.Mode) bool {
	for _, m := range modes {
		if b.appliesTo(m) {
			continue
		}
		other := h.Get(m, b.Name(), false)
		if other == nil || other.RHS == "" || other.RHS != b.RHS {
			return false
		}
	}
	return true
}

func modeTags(modes []*mode.Mode) string {
	var b strings.Builder
	for _, m := range modes {
		if m.Char() != 0 {
			b.WriteRune(m.Char())
		} else {
			b.WriteString(m.Name())
		}
	}
	return b.String()
}

// entrySource adapts entries to fuzzy.Source. Each entry is matched on its
// names and description.
type entrySource []Entry

func (s entrySource) String(i int) string {
	return strings.Join(s[i].Names, " ") + " " + s[i].Description
}

func (s entrySource) Len() int { return len(s) }

func fuzzyFilter(entries []Entry, pattern string) []Entry {
	matches := fuzzy.FindFrom(pattern, entrySource(entries))
	out := make([]Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}
