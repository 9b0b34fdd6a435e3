package sidebar

import (
	"sync"

	"github.com/starford/nbshell/internal/checksum"
	"github.com/starford/nbshell/internal/models"
)

// Landing is the default landing notebook. It moves from unset to set once
// and never changes afterwards.
type Landing struct {
	id  string
	set bool
}

// Offer establishes the landing from t if it is still unset. It reports
// whether this call set it.
func (l *Landing) Offer(t Tree) bool {
	if l.set {
		return false
	}
	id, ok := DefaultLandingID(t)
	if !ok {
		return false
	}
	l.id, l.set = id, true
	return true
}

// ID returns the landing notebook, if established.
func (l *Landing) ID() (string, bool) {
	return l.id, l.set
}

// Change describes the effect of State.Apply.
type Change struct {
	TreeChanged bool
	LandingSet  bool
	Landing     string
}

// State holds the current tree and landing for the process. It is safe for
// concurrent use.
type State struct {
	mu      sync.RWMutex
	tree    Tree
	sum     string
	applied bool
	landing Landing
}

// NewState returns an empty State.
func NewState() *State {
	return &State{}
}

// Apply rebuilds the tree from records unless the listing is identical to
// the one last applied.
func (s *State) Apply(records []models.NotebookRecord) Change {
	sum := checksum.Records(records)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied && sum == s.sum {
		return Change{}
	}
	s.sum, s.applied = sum, true

	next := Rebuild(records, s.tree)
	ch := Change{TreeChanged: !Equal(next, s.tree)}
	s.tree = next
	if s.landing.Offer(next) {
		ch.LandingSet = true
		ch.Landing, _ = s.landing.ID()
	}
	return ch
}

// Snapshot returns a copy of the tree and the landing notebook.
func (s *State) Snapshot() (Tree, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.landing.ID()
	return s.tree.Clone(), id, ok
}

// Landing returns the default landing notebook, if established.
func (s *State) Landing() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.landing.ID()
}

// Toggle flips the expanded flag of the named category. It reports false if
// no such category exists.
func (s *State) Toggle(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tree {
		if s.tree[i].Name == name {
			s.tree[i].Expanded = !s.tree[i].Expanded
			return true
		}
	}
	return false
}
