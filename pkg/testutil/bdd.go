package testutil

import "testing"

// Scenario runs Given/When/Then steps as ordered subtests. Steps share state
// through the enclosing closure, so once a step fails the remaining ones are
// skipped instead of failing on zero values.
type Scenario struct {
	t      *testing.T
	failed string
}

// NewScenario starts a scenario on t.
func NewScenario(t *testing.T) *Scenario {
	return &Scenario{t: t}
}

func (s *Scenario) Given(desc string, fn func(t *testing.T)) { s.step("Given", desc, fn) }
func (s *Scenario) When(desc string, fn func(t *testing.T))  { s.step("When", desc, fn) }
func (s *Scenario) Then(desc string, fn func(t *testing.T))  { s.step("Then", desc, fn) }
func (s *Scenario) And(desc string, fn func(t *testing.T))   { s.step("And", desc, fn) }

func (s *Scenario) step(keyword, desc string, fn func(t *testing.T)) {
	s.t.Helper()
	name := keyword + " " + desc
	if s.failed != "" {
		s.t.Run(name, func(t *testing.T) { t.Skipf("skipped after %q failed", s.failed) })
		return
	}
	if !s.t.Run(name, fn) {
		s.failed = name
	}
}
