package tree

// This file contains the entity registry: the suites, groups and tests of a
// single run, keyed by the ids assigned by the test runner.

import (
	"errors"
	"fmt"
	"time"

	"github.com/perfgo/testcheck/event"
)

var (
	ErrUnknownSuite = errors.New("unknown suite")
	ErrUnknownGroup = errors.New("unknown group")
	ErrUnknownTest  = errors.New("unknown test")
	ErrDuplicateID  = errors.New("duplicate id")
)

// GroupContainer holds the groups and tests directly below a suite or group,
// in the order they were added.
type GroupContainer struct {
	groupOrder []int
	groups     map[int]*Group
	testOrder  []int
	tests      map[int]*Test
}

func newGroupContainer() GroupContainer {
	return GroupContainer{
		groups: make(map[int]*Group),
		tests:  make(map[int]*Test),
	}
}

// Groups returns the direct child groups in insertion order.
func (c *GroupContainer) Groups() []*Group {
	out := make([]*Group, 0, len(c.groupOrder))
	for _, id := range c.groupOrder {
		out = append(out, c.groups[id])
	}
	return out
}

// Tests returns the direct child tests in insertion order.
func (c *GroupContainer) Tests() []*Test {
	out := make([]*Test, 0, len(c.testOrder))
	for _, id := range c.testOrder {
		out = append(out, c.tests[id])
	}
	return out
}

// Group returns the direct child group with the given id.
func (c *GroupContainer) Group(id int) (*Group, bool) {
	g, ok := c.groups[id]
	return g, ok
}

// HasTests reports whether at least one direct child test is not hidden.
// Tests in descendant groups are not considered.
func (c *GroupContainer) HasTests() bool {
	for _, id := range c.testOrder {
		if !c.tests[id].Hidden {
			return true
		}
	}
	return false
}

func (c *GroupContainer) addGroup(g *Group) {
	if _, ok := c.groups[g.ID]; !ok {
		c.groupOrder = append(c.groupOrder, g.ID)
	}
	c.groups[g.ID] = g
}

func (c *GroupContainer) addTest(t *Test) {
	if _, ok := c.tests[t.ID]; !ok {
		c.testOrder = append(c.testOrder, t.ID)
	}
	c.tests[t.ID] = t
}

// ParentKind tells whether a ParentRef points at a suite or a group.
type ParentKind uint8

const (
	ParentSuite ParentKind = iota
	ParentGroup
)

// ParentRef identifies the container of a group or test.
type ParentRef struct {
	Kind ParentKind
	ID   int
}

func (r ParentRef) String() string {
	if r.Kind == ParentSuite {
		return fmt.Sprintf("suite %d", r.ID)
	}
	return fmt.Sprintf("group %d", r.ID)
}

type Suite struct {
	GroupContainer

	ID       int
	Platform string
	// Path relative to the run directory, nil if the runner did not report it.
	Path *string
}

type Group struct {
	GroupContainer

	ID      int
	SuiteID int
	Parent  ParentRef
	// Name is empty for the implicit root group of a suite.
	Name string
	// TestCount is the number of tests announced by the runner, which can
	// differ from the number of tests that actually ran.
	TestCount int
	Line      *int
	Column    *int
}

type Test struct {
	ID      int
	SuiteID int
	Parent  ParentRef
	// Name with the names of all containing groups removed.
	Name string
	// FullName is the name as reported by the runner.
	FullName string
	Line     *int
	Column   *int

	Hidden  bool
	Skipped bool
	// Result is nil until the test is done.
	Result *event.Result

	StartedAt time.Duration
	// DoneAt is nil until the test is done.
	DoneAt *time.Duration
}

// Done reports whether a testDone event was seen for the test.
func (t *Test) Done() bool {
	return t.Result != nil
}

// Duration returns the time between the start and the end of the test.
func (t *Test) Duration() (time.Duration, bool) {
	if t.DoneAt == nil {
		return 0, false
	}
	d := *t.DoneAt - t.StartedAt
	if d < 0 {
		return 0, true
	}
	return d, true
}

// Registry owns all entities of a run.
type Registry struct {
	suiteOrder []int
	suites     map[int]*Suite
	groups     map[int]*Group
	tests      map[int]*Test
}

func NewRegistry() *Registry {
	return &Registry{
		suites: make(map[int]*Suite),
		groups: make(map[int]*Group),
		tests:  make(map[int]*Test),
	}
}

// Suites returns all suites in registration order.
func (r *Registry) Suites() []*Suite {
	out := make([]*Suite, 0, len(r.suiteOrder))
	for _, id := range r.suiteOrder {
		out = append(out, r.suites[id])
	}
	return out
}

func (r *Registry) SuiteCount() int {
	return len(r.suiteOrder)
}

func (r *Registry) Suite(id int) (*Suite, error) {
	s, ok := r.suites[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSuite, id)
	}
	return s, nil
}

func (r *Registry) Group(id int) (*Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGroup, id)
	}
	return g, nil
}

func (r *Registry) Test(id int) (*Test, error) {
	t, ok := r.tests[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTest, id)
	}
	return t, nil
}

// Tests returns every registered test, grouped by suite and then in
// depth-first container order.
func (r *Registry) Tests() []*Test {
	var out []*Test
	for _, s := range r.Suites() {
		out = append(out, r.SuiteTests(s)...)
	}
	return out
}

// SuiteTests returns the tests of s in depth-first container order, direct
// tests of a container before those of its child groups.
func (r *Registry) SuiteTests(s *Suite) []*Test {
	var out []*Test
	var walk func(c *GroupContainer)
	walk = func(c *GroupContainer) {
		out = append(out, c.Tests()...)
		for _, g := range c.Groups() {
			walk(&g.GroupContainer)
		}
	}
	walk(&s.GroupContainer)
	return out
}

// Container resolves a parent reference to its container.
func (r *Registry) Container(ref ParentRef) (*GroupContainer, error) {
	if ref.Kind == ParentSuite {
		s, err := r.Suite(ref.ID)
		if err != nil {
			return nil, err
		}
		return &s.GroupContainer, nil
	}
	g, err := r.Group(ref.ID)
	if err != nil {
		return nil, err
	}
	return &g.GroupContainer, nil
}

// Ancestors returns the groups containing the given container reference,
// from outermost to innermost, including the referenced group itself.
func (r *Registry) Ancestors(ref ParentRef) ([]*Group, error) {
	var chain []*Group
	for ref.Kind == ParentGroup {
		g, err := r.Group(ref.ID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, g)
		ref = g.Parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func (r *Registry) addSuite(s *Suite) error {
	if _, ok := r.suites[s.ID]; ok {
		return fmt.Errorf("%w: suite %d", ErrDuplicateID, s.ID)
	}
	r.suiteOrder = append(r.suiteOrder, s.ID)
	r.suites[s.ID] = s
	return nil
}

// addGroup registers g and attaches it to its parent container.
func (r *Registry) addGroup(g *Group) error {
	if _, ok := r.groups[g.ID]; ok {
		return fmt.Errorf("%w: group %d", ErrDuplicateID, g.ID)
	}
	parent, err := r.Container(g.Parent)
	if err != nil {
		return err
	}
	parent.addGroup(g)
	r.groups[g.ID] = g
	return nil
}

// addTest registers t and attaches it to the given container.
func (r *Registry) addTest(t *Test, parent *GroupContainer) error {
	if _, ok := r.tests[t.ID]; ok {
		return fmt.Errorf("%w: test %d", ErrDuplicateID, t.ID)
	}
	parent.addTest(t)
	r.tests[t.ID] = t
	return nil
}
