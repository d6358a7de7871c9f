package models

import "maps"

// Mode tells whether a draft creates a new entity or edits an existing one.
type Mode string

const (
	ModeAdd  Mode = "add"
	ModeEdit Mode = "edit"
)

// Payload is the field set assembled from a draft for a create or update.
// Files maps a blob field to the URI of the file to upload; transport
// encoding is left to the remote collaborator.
type Payload struct {
	Fields map[string]string
	Files  map[string]string
}

// Entity builds the local representation of the payload under id.
func (p Payload) Entity(id string, order int) Entity {
	e := Entity{ID: id, Order: order, Fields: maps.Clone(p.Fields)}
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	delete(e.Fields, OrderField)
	return e
}

// With returns a copy of p with field set to value.
func (p Payload) With(field, value string) Payload {
	out := Payload{Fields: maps.Clone(p.Fields), Files: maps.Clone(p.Files)}
	if out.Fields == nil {
		out.Fields = map[string]string{}
	}
	out.Fields[field] = value
	return out
}
