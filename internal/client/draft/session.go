// Package draft holds the in-progress create or edit form of one entity.
//
// A Session moves Empty → Editing → Submitting → Saved. A failed submit
// lands back in Editing with the user input intact and the failure message
// available from Failure until the next submit. Field changes are
// validated one field at a time; Submit validates everything and sends
// nothing while any error remains.
package draft

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/client/validation"
	"github.com/dmitrijs2005/adminconsole/internal/common"
)

type State int

const (
	Empty State = iota
	Editing
	Submitting
	Saved
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Saved:
		return "saved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SubmitFunc sends the assembled payload. For edits id is the owner id.
type SubmitFunc func(ctx context.Context, mode models.Mode, id string, p models.Payload) (models.Entity, error)

// FileRemover deletes an existing file attached to an entity.
type FileRemover interface {
	RemoveFile(ctx context.Context, id, field string) error
}

// Form describes the fields a session edits.
type Form struct {
	Rules      validation.Rules
	FileFields []string
	// Siblings returns the loaded collection for uniqueness checks.
	Siblings func() []models.Entity
}

type Session struct {
	mu sync.Mutex

	mode    models.Mode
	ownerID string
	form    Form
	files   map[string]bool

	state   State
	values  map[string]string
	attach  map[string]string
	current map[string]string // existing file URLs by field
	removed map[string]bool

	errs    validation.ErrorMap
	failure string
}

func newSession(mode models.Mode, ownerID string, form Form) *Session {
	s := &Session{
		mode:    mode,
		ownerID: ownerID,
		form:    form,
		files:   map[string]bool{},
		values:  map[string]string{},
		attach:  map[string]string{},
		current: map[string]string{},
		removed: map[string]bool{},
		errs:    validation.ErrorMap{},
	}
	for _, f := range form.FileFields {
		s.files[f] = true
	}
	return s
}

// NewAdd opens a blank session.
func NewAdd(form Form) *Session {
	return newSession(models.ModeAdd, "", form)
}

// NewEdit opens a session pre-populated from target. File fields keep the
// existing file reference until it is explicitly removed.
func NewEdit(target models.Entity, form Form) *Session {
	s := newSession(models.ModeEdit, target.ID, form)
	for name, value := range target.Fields {
		if s.files[name] {
			if value != "" {
				s.current[name] = value
			}
			continue
		}
		s.values[name] = value
	}
	if target.Order > 0 {
		s.values[models.OrderField] = target.Get(models.OrderField)
	}
	return s
}

func (s *Session) Mode() models.Mode { return s.mode }

// OwnerID is the id of the entity being edited, empty in add mode.
func (s *Session) OwnerID() string { return s.ownerID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Failure returns the message of the last failed submit, if any.
func (s *Session) Failure() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

func (s *Session) Values() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.values)
}

func (s *Session) Errors() validation.ErrorMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.errs)
}

// ExistingFile returns the URL of the file currently attached on the
// server, unless it was removed in this session.
func (s *Session) ExistingFile(field string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url, ok := s.current[field]
	if !ok || s.removed[field] {
		return "", false
	}
	return url, true
}

// Set updates a field and validates it. The returned error is the field's
// validation failure, if any.
func (s *Session) Set(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Submitting {
		return common.ErrSubmitInProgress
	}
	s.values[field] = value
	s.state = Editing
	return s.check(field)
}

// Attach selects a new file for a file field.
func (s *Session) Attach(field, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Submitting {
		return common.ErrSubmitInProgress
	}
	s.attach[field] = uri
	s.state = Editing
	return s.check(field)
}

// RemoveExisting deletes the file already attached to field on the server.
// It runs independently of the main save; a failure keeps the file attached
// and leaves the rest of the form usable.
func (s *Session) RemoveExisting(ctx context.Context, field string, r FileRemover) error {
	s.mu.Lock()
	if _, ok := s.current[field]; !ok || s.removed[field] {
		s.mu.Unlock()
		return common.ErrNotFound
	}
	s.removed[field] = true
	s.state = Editing
	owner := s.ownerID
	s.mu.Unlock()

	err := r.RemoveFile(ctx, owner, field)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.removed[field] = false
		return err
	}
	delete(s.current, field)
	_ = s.check(field)
	return nil
}

// Validate runs every rule and records the result.
func (s *Session) Validate() validation.ErrorMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = validation.ValidateAll(s.fieldValues(), s.form.Rules, s.context())
	return maps.Clone(s.errs)
}

// Submit validates the draft and, when it is clean, sends it through fn.
// A submit while another is in flight returns ErrSubmitInProgress without
// calling fn. On failure the session goes back to Editing with the user
// input intact and the failure message recorded.
func (s *Session) Submit(ctx context.Context, fn SubmitFunc) (models.Entity, error) {
	s.mu.Lock()
	if s.state == Submitting {
		s.mu.Unlock()
		return models.Entity{}, common.ErrSubmitInProgress
	}
	s.errs = validation.ValidateAll(s.fieldValues(), s.form.Rules, s.context())
	if !s.errs.Empty() {
		s.state = Editing
		errs := maps.Clone(s.errs)
		s.mu.Unlock()
		return models.Entity{}, errs
	}
	s.state = Submitting
	s.failure = ""
	p := s.payload()
	s.mu.Unlock()

	saved, err := fn(ctx, s.mode, s.ownerID, p)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failure = common.UserMessage(err)
		s.state = Editing
		return models.Entity{}, err
	}
	s.state = Saved
	return saved, nil
}

// Payload returns the field set a submit would send.
func (s *Session) Payload() models.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload()
}

func (s *Session) payload() models.Payload {
	p := models.Payload{Fields: map[string]string{}, Files: map[string]string{}}
	for k, v := range s.values {
		if !s.files[k] {
			p.Fields[k] = strings.TrimSpace(v)
		}
	}
	for k, v := range s.attach {
		p.Files[k] = v
	}
	return p
}

func (s *Session) fieldValues() map[string]string {
	out := maps.Clone(s.values)
	for f := range s.files {
		out[f] = s.attach[f]
	}
	return out
}

func (s *Session) context() validation.Context {
	kept := map[string]bool{}
	for f := range s.current {
		if !s.removed[f] {
			kept[f] = true
		}
	}
	vc := validation.Context{Mode: s.mode, OwnerID: s.ownerID, KeptFiles: kept}
	if s.form.Siblings != nil {
		vc.Siblings = s.form.Siblings()
	}
	return vc
}

func (s *Session) check(field string) error {
	values := s.fieldValues()
	err := validation.Validate(field, values[field], s.form.Rules[field], s.context())
	if err != nil {
		s.errs[field] = err.Error()
	} else {
		delete(s.errs, field)
	}
	return err
}
