package mode

// ID identifies a mode within its Registry.
type ID int

// Flags describe how a mode interprets keys.
type Flags uint16

const (
	// FlagHidden keeps the mode out of user-facing listings.
	FlagHidden Flags = 1 << iota

	// FlagExtended marks an overlay mode carried in a frame's extended mask.
	FlagExtended

	// FlagNoCount disables numeric count prefixes.
	FlagNoCount

	// FlagInsert marks a text input mode. Unknown keys are passed through.
	FlagInsert

	// FlagOwnsFocus marks a mode that owns the input focus.
	FlagOwnsFocus

	// FlagPassThrough delivers keys to the host without lookup.
	FlagPassThrough

	// FlagOneShot pops the mode after a single key.
	FlagOneShot
)

// Mode is an immutable mode identity.
type Mode struct {
	id          ID
	name        string
	char        rune
	description string
	flags       Flags

	// bases are the direct parents. closure is the mode itself followed by
	// every transitive base in breadth-first order.
	bases   []ID
	closure []ID
	set     bitset

	// bit is the mode's extended-mask bit, zero for main modes.
	bit uint64
}

// ID returns the arena index of the mode.
func (m *Mode) ID() ID { return m.id }

// Name returns the unique mode name.
func (m *Mode) Name() string { return m.name }

// Char returns the single-character tag, or 0.
func (m *Mode) Char() rune { return m.char }

// Description returns the human-readable description.
func (m *Mode) Description() string { return m.description }

// Flags returns the mode flags.
func (m *Mode) Flags() Flags { return m.flags }

// Bit returns the extended-mask bit of an extended mode.
func (m *Mode) Bit() uint64 { return m.bit }

// Has reports whether all of f are set.
func (m *Mode) Has(f Flags) bool { return m.flags&f == f }

// AcceptsCount reports whether numeric prefixes are counted in this mode.
func (m *Mode) AcceptsCount() bool { return !m.Has(FlagNoCount) }

// Is reports whether other is m or one of its transitive bases.
func (m *Mode) Is(other *Mode) bool {
	if m == nil || other == nil {
		return false
	}
	return m.set.has(int(other.id))
}

func (m *Mode) String() string {
	if m == nil {
		return "<nil>"
	}
	return m.name
}

// Option configures a mode at registration.
type Option func(*Mode)

// WithChar sets the single-character tag used in listings.
func WithChar(c rune) Option {
	return func(m *Mode) { m.char = c }
}

// WithDescription sets the description.
func WithDescription(desc string) Option {
	return func(m *Mode) { m.description = desc }
}

// WithFlags adds flags.
func WithFlags(f Flags) Option {
	return func(m *Mode) { m.flags |= f }
}

// bitset is a growable set of small integers.
type bitset []uint64

func (b bitset) has(i int) bool {
	w := i / 64
	return w < len(b) && b[w]&(1<<(uint(i)%64)) != 0
}

func (b *bitset) add(i int) {
	w := i / 64
	for len(*b) <= w {
		*b = append(*b, 0)
	}
	(*b)[w] |= 1 << (uint(i) % 64)
}
