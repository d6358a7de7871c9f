// Package resources describes every resource kind the console manages as a
// tagged variant: one Schema per Kind, carrying its endpoints, field set,
// validation rules and ordering policy. Screens, drafts and the REST client
// are all driven by a Schema instead of per-kind code.
package resources

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrijs2005/adminconsole/internal/client/validation"
	"github.com/dmitrijs2005/adminconsole/internal/common"
)

// Kind identifies a resource type.
type Kind string

const (
	KindBrochure Kind = "brochure"
	KindClient   Kind = "client"
	KindBusiness Kind = "business"
	KindService  Kind = "service"
	KindProduct  Kind = "product"
	KindChatbot  Kind = "chatbot"
	KindSlider   Kind = "slider"

	KindOrganization Kind = "organization"
	KindTooltip      Kind = "tooltip"
)

// OrderPolicy describes how a resource uses the order field.
type OrderPolicy int

const (
	// OrderNone: no order field.
	OrderNone OrderPolicy = iota
	// OrderDense: order is a permutation of 1..N kept dense; items can be
	// moved and new items go to N+1.
	OrderDense
	// OrderSlots: order is a user-picked free slot in 1..Capacity.
	OrderSlots
)

// Endpoints are paths relative to the API base URL. "%s" stands for the
// entity id, or the natural key for Get. An empty endpoint means the
// operation is not offered.
type Endpoints struct {
	List       string
	Get        string
	Create     string
	Update     string
	Delete     string
	Move       string
	RemoveFile string
}

// Field describes one editable field.
type Field struct {
	Name string
	// Wire is the name sent in request bodies when it differs from Name,
	// the name the API reads back.
	Wire  string
	Label string
	File  bool
	Rules []validation.Rule

	// Accept lists allowed content types for file fields; empty means any.
	Accept []string
	// MaxBytes bounds a file field's size; 0 means unbounded.
	MaxBytes int64
}

// Schema is the full description of one resource kind.
type Schema struct {
	Kind  Kind
	Title string

	// ListKey is the envelope key the API uses for this resource besides
	// "data". ItemKey, when set, holds a single entity.
	ListKey string
	ItemKey string

	// Key names the field that identifies an entity to users. Creating an
	// entity whose key is already held updates it instead.
	Key string

	Endpoints    Endpoints
	UpdateMethod string
	// UpdateSendsID adds the entity id to the update body.
	UpdateSendsID bool
	Multipart     bool

	Order    OrderPolicy
	Capacity int

	SearchFields []string
	DefaultSort  string

	Fields []Field
}

// Ordered reports whether entities carry an order index.
func (s Schema) Ordered() bool { return s.Order != OrderNone }

// Reorderable reports whether entities can be moved by drag and drop.
func (s Schema) Reorderable() bool { return s.Order == OrderDense && s.Endpoints.Move != "" }

// Rules returns the validation rules keyed by field name.
func (s Schema) Rules() validation.Rules {
	r := make(validation.Rules, len(s.Fields))
	for _, f := range s.Fields {
		if len(f.Rules) > 0 {
			r[f.Name] = f.Rules
		}
	}
	return r
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	i := slices.IndexFunc(s.Fields, func(f Field) bool { return f.Name == name })
	if i < 0 {
		return Field{}, false
	}
	return s.Fields[i], true
}

// WireName returns the request-body name of field.
func (s Schema) WireName(field string) string {
	if f, ok := s.Field(field); ok && f.Wire != "" {
		return f.Wire
	}
	return field
}

// FileFields returns the names of blob fields.
func (s Schema) FileFields() []string {
	var out []string
	for _, f := range s.Fields {
		if f.File {
			out = append(out, f.Name)
		}
	}
	return out
}

// Path expands an endpoint with the given id.
func Path(endpoint, id string) string {
	if strings.Contains(endpoint, "%s") {
		return fmt.Sprintf(endpoint, id)
	}
	return endpoint
}

// Method returns the HTTP method used for updates.
func (s Schema) Method() string {
	if s.UpdateMethod == "" {
		return http.MethodPut
	}
	return s.UpdateMethod
}

// Lookup returns the schema registered for kind.
func Lookup(kind Kind) (Schema, error) {
	s, ok := registry[kind]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", common.ErrUnknownResource, kind)
	}
	return s, nil
}

// Kinds lists the registered kinds in a stable order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
