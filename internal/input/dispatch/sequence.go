package dispatch

import (
	"strconv"

	"github.com/dshills/keyhive/internal/input/hive"
	"github.com/dshills/keyhive/internal/input/key"
	"github.com/dshills/keyhive/internal/input/mode"
)

// sequence is one key sequence in progress. The modes and hives are
// captured from the first key and stay fixed until the sequence ends.
type sequence struct {
	frame  *mode.Frame
	main   *mode.Mode
	modes  []*mode.Mode
	hives  []*hive.Hive
	site   *hive.Hive
	counts bool

	inputs  []Input
	count   string
	command []key.Event

	// best is the longest exact match seen while candidates remained.
	best     *hive.Binding
	bestName string
	bestLen  int

	arg *pendingArg
}

// pendingArg is a binding waiting for its argument or motion key.
type pendingArg struct {
	binding *hive.Binding
	name    string
	motion  bool
	count   string
}

// resolve looks name up in the captured modes and hives. Site pass keys
// take precedence over every hive.
func (s *sequence) resolve(name string) hive.Match {
	m := hive.Resolve(s.modes, s.hives, name)
	if s.site == nil {
		return m
	}
	sm := hive.Resolve(s.modes, []*hive.Hive{s.site}, name)
	if sm.Binding != nil {
		m.Binding = sm.Binding
	}
	m.Candidates += sm.Candidates
	m.Hard += sm.Hard
	return m
}

func (s *sequence) events() []key.Event {
	out := make([]key.Event, len(s.inputs))
	for i, in := range s.inputs {
		out[i] = in.Event
	}
	return out
}

// keys renders everything typed so far, count included.
func (s *sequence) keys() string {
	return key.Stringify(s.events())
}

// macro reports whether the key that completed the sequence was fed.
func (s *sequence) macro() bool {
	return len(s.inputs) > 0 && s.inputs[len(s.inputs)-1].Macro
}

// countDigit reports whether ev extends count. A count cannot start with 0.
func countDigit(ev key.Event, count string) bool {
	return ev.IsDigit() && (count != "" || ev.Rune != '0')
}

// MaxCount is the largest count passed to a binding. Longer counts are
// clamped to it.
const MaxCount = 999999

func parseCount(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > MaxCount {
		// Only digits reach here, so an error means overflow.
		return MaxCount
	}
	return n
}
