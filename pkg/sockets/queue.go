package sockets

// orderedSet keeps serialized frames in first-insertion order and drops duplicates.
type orderedSet struct {
	order []string
	seen  map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(msg string) bool {
	if _, ok := s.seen[msg]; ok {
		return false
	}
	s.seen[msg] = struct{}{}
	s.order = append(s.order, msg)
	return true
}

func (s *orderedSet) items() []string {
	return append([]string(nil), s.order...)
}

func (s *orderedSet) len() int {
	return len(s.order)
}

// reset replaces the contents with keep, preserving its order.
func (s *orderedSet) reset(keep []string) {
	s.order = nil
	s.seen = make(map[string]struct{}, len(keep))
	for _, msg := range keep {
		s.add(msg)
	}
}
