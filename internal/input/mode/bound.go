package mode

import "errors"

// ErrInvalidAccessor is returned by Save when an accessor is incomplete.
var ErrInvalidAccessor = errors.New("accessor needs both Get and Set")

// Accessor reads and writes one piece of ambient state.
type Accessor struct {
	Get func() any
	Set func(any)
}

// Field returns an Accessor over a variable.
func Field[T any](p *T) Accessor {
	return Accessor{
		Get: func() any { return *p },
		Set: func(v any) { *p = v.(T) },
	}
}

// RestorePredicate decides whether a saved value is written back when the
// frame that captured it is popped. Returning false keeps the current value.
type RestorePredicate func(saved any, popped *Frame) bool

type boundProperty struct {
	id      string
	acc     Accessor
	restore RestorePredicate
}

// Save registers a bound property. Every later push captures its value and
// the matching pop writes it back, unless restore vetoes. Saving an id
// again replaces the earlier registration.
func (s *Stack) Save(id string, acc Accessor, restore RestorePredicate) error {
	if acc.Get == nil || acc.Set == nil {
		return ErrInvalidAccessor
	}
	b := &boundProperty{id: id, acc: acc, restore: restore}
	if i, ok := s.boundID[id]; ok {
		s.bound[i] = b
		return nil
	}
	s.boundID[id] = len(s.bound)
	s.bound = append(s.bound, b)
	return nil
}

// Forget stops tracking a bound property. Values already captured in
// frames are dropped when those frames pop.
func (s *Stack) Forget(id string) {
	i, ok := s.boundID[id]
	if !ok {
		return
	}
	s.bound = append(s.bound[:i], s.bound[i+1:]...)
	delete(s.boundID, id)
	for j := i; j < len(s.bound); j++ {
		s.boundID[s.bound[j].id] = j
	}
}

// restore writes back the values f captured at push time.
func (s *Stack) restore(f *Frame) {
	for _, b := range s.bound {
		v, ok := f.saved[b.id]
		if !ok {
			continue
		}
		if b.restore != nil && !b.restore(v, f) {
			continue
		}
		b.acc.Set(v)
	}
}
