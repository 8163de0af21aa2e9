package promo

// mapCodeSet implements CodeSet with a map.
type mapCodeSet struct {
	codes map[string]struct{}
}

// newCodeSet creates an empty set sized for capacity codes.
func newCodeSet(capacity int) *mapCodeSet {
	return &mapCodeSet{
		codes: make(map[string]struct{}, capacity),
	}
}

// NewCodeSetFrom creates a set holding the given codes.
func NewCodeSetFrom(codes ...string) CodeSet {
	s := newCodeSet(len(codes))
	for _, c := range codes {
		s.Add(c)
	}
	return s
}

func (s *mapCodeSet) Contains(code string) bool {
	_, ok := s.codes[code]
	return ok
}

func (s *mapCodeSet) Size() int {
	return len(s.codes)
}

// Add inserts a code.
func (s *mapCodeSet) Add(code string) {
	s.codes[code] = struct{}{}
}
