package resolver

// scope tracks the names declared in one block or function body.
// A name maps to false between its declaration and the end of its initializer.
type scope struct {
	names map[string]bool
}

func newScope() *scope {
	return &scope{names: make(map[string]bool)}
}

func (s *scope) declare(name string) bool {
	if _, exists := s.names[name]; exists {
		return false
	}
	s.names[name] = false
	return true
}

func (s *scope) define(name string) {
	s.names[name] = true
}

// lookup returns whether name is declared here and whether it is initialized.
func (s *scope) lookup(name string) (declared, ready bool) {
	ready, declared = s.names[name]
	return declared, ready
}
