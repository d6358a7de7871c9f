// Package drawer binds a draft session to the open/closed state of an
// add/edit drawer. A screen has one Lifecycle and at most one open drawer.
package drawer

import (
	"sync"

	"github.com/dmitrijs2005/adminconsole/internal/client/draft"
	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/client/resources"
	"github.com/dmitrijs2005/adminconsole/internal/common"
)

type Lifecycle struct {
	mu      sync.Mutex
	kind    resources.Kind
	session *draft.Session
}

func New(kind resources.Kind) *Lifecycle {
	return &Lifecycle{kind: kind}
}

func (l *Lifecycle) Kind() resources.Kind { return l.kind }

// Open shows the drawer for s. Only one drawer may be open at a time.
func (l *Lifecycle) Open(s *draft.Session) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session != nil {
		return common.ErrDrawerBusy
	}
	l.session = s
	return nil
}

// OpenAdd opens a blank drawer.
func (l *Lifecycle) OpenAdd(form draft.Form) (*draft.Session, error) {
	s := draft.NewAdd(form)
	if err := l.Open(s); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenEdit opens a drawer pre-populated from target.
func (l *Lifecycle) OpenEdit(target models.Entity, form draft.Form) (*draft.Session, error) {
	s := draft.NewEdit(target, form)
	if err := l.Open(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Close hides the drawer and drops its session. A submit still in flight
// completes, but its outcome is no longer attached to a drawer.
func (l *Lifecycle) Close() *draft.Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.session
	l.session = nil
	return s
}

// Current returns the open session, or ErrDrawerClosed.
func (l *Lifecycle) Current() (*draft.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session == nil {
		return nil, common.ErrDrawerClosed
	}
	return l.session, nil
}

func (l *Lifecycle) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session != nil
}

// Attached reports whether s is still the session shown in the drawer.
func (l *Lifecycle) Attached(s *draft.Session) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return s != nil && l.session == s
}

// Finish closes the drawer after a successful save of s. It reports false
// when s was already detached by Close.
func (l *Lifecycle) Finish(s *draft.Session) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s == nil || l.session != s {
		return false
	}
	l.session = nil
	return true
}
