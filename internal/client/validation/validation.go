// Package validation checks draft field values against resource-specific
// rules. Everything here is synchronous and side-effect free; uniqueness is
// evaluated against the already-loaded sibling collection.
package validation

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/common"
)

// Context carries what a rule may need beyond the value itself.
type Context struct {
	Mode models.Mode

	// OwnerID is the id of the entity being edited; it is excluded from
	// uniqueness checks.
	OwnerID string

	// Siblings is the loaded collection the draft belongs to.
	Siblings []models.Entity

	// KeptFiles lists blob fields whose existing file is still attached.
	KeptFiles map[string]bool
}

// Rule checks one field value. A nil error means the value is acceptable.
type Rule interface {
	Check(field, value string, vc Context) error
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(field, value string, vc Context) error

func (f RuleFunc) Check(field, value string, vc Context) error { return f(field, value, vc) }

// Rules maps a field name to its rules, checked in order.
type Rules map[string][]Rule

// Fields returns the field names in a stable order.
func (r Rules) Fields() []string {
	return slices.Sorted(maps.Keys(r))
}

// ErrorMap holds one message per failing field.
type ErrorMap map[string]string

func (m ErrorMap) Empty() bool { return len(m) == 0 }

func (m ErrorMap) Error() string {
	parts := make([]string, 0, len(m))
	for _, f := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, fmt.Sprintf("%s: %s", f, m[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (m ErrorMap) Unwrap() error { return common.ErrValidation }

// Err returns m as an error, or nil when it is empty.
func (m ErrorMap) Err() error {
	if m.Empty() {
		return nil
	}
	return m
}

// Validate runs the rules for one field and returns the first failure.
func Validate(field, value string, rules []Rule, vc Context) error {
	for _, r := range rules {
		if err := r.Check(field, value, vc); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAll runs every declared rule against values and returns only the
// failing fields. Submission must be blocked whenever the result is non-empty.
func ValidateAll(values map[string]string, rules Rules, vc Context) ErrorMap {
	errs := ErrorMap{}
	for _, field := range rules.Fields() {
		if err := Validate(field, values[field], rules[field], vc); err != nil {
			errs[field] = err.Error()
		}
	}
	return errs
}

// AsErrorMap extracts an ErrorMap from err.
func AsErrorMap(err error) (ErrorMap, bool) {
	var m ErrorMap
	if errors.As(err, &m) {
		return m, true
	}
	return nil, false
}
