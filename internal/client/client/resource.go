package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strconv"

	"github.com/dmitrijs2005/adminconsole/internal/client/blobsrc"
	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/client/reorder"
	"github.com/dmitrijs2005/adminconsole/internal/client/resources"
	"github.com/dmitrijs2005/adminconsole/internal/common"
	"github.com/dmitrijs2005/adminconsole/internal/netx"
)

// Resource is the API collaborator for one resource kind.
type Resource struct {
	c      *HTTPClient
	schema resources.Schema
}

func (r *Resource) Schema() resources.Schema { return r.schema }

func (r *Resource) List(ctx context.Context) ([]models.Entity, error) {
	env, err := r.c.do(ctx, http.MethodGet, r.schema.Endpoints.List, nil, "")
	if err != nil {
		return nil, err
	}
	items, _, err := r.decodeList(env)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Entity{}
	}
	return items, nil
}

func (r *Resource) Create(ctx context.Context, p models.Payload) (models.Entity, error) {
	env, err := r.send(ctx, http.MethodPost, r.schema.Endpoints.Create, p)
	if err != nil {
		return models.Entity{}, err
	}
	return r.decodeEntity(env)
}

func (r *Resource) Update(ctx context.Context, id string, p models.Payload) (models.Entity, error) {
	if r.schema.Endpoints.Update == "" {
		return models.Entity{}, fmt.Errorf("%s update: %w", r.schema.Kind, common.ErrNotOffered)
	}
	if r.schema.UpdateSendsID {
		p = p.With("id", id)
	}
	env, err := r.send(ctx, r.schema.Method(), resources.Path(r.schema.Endpoints.Update, id), p)
	if err != nil {
		return models.Entity{}, err
	}
	e, err := r.decodeEntity(env)
	if err != nil {
		return models.Entity{}, err
	}
	if e.ID != "" && e.ID != id {
		// Only a record with the same id confirms the update.
		return models.Entity{}, nil
	}
	return e, nil
}

// Fetch reads the single entity addressed by key. A missing entity is
// reported as common.ErrNotFound.
func (r *Resource) Fetch(ctx context.Context, key string) (models.Entity, error) {
	if r.schema.Endpoints.Get == "" {
		return models.Entity{}, fmt.Errorf("%s fetch: %w", r.schema.Kind, common.ErrNotOffered)
	}
	env, err := r.c.do(ctx, http.MethodGet, resources.Path(r.schema.Endpoints.Get, key), nil, "")
	var re *common.RemoteError
	if errors.As(err, &re) && re.Status == http.StatusNotFound {
		return models.Entity{}, fmt.Errorf("%s %s: %w", r.schema.Kind, key, common.ErrNotFound)
	}
	if err != nil {
		return models.Entity{}, err
	}
	e, err := r.decodeEntity(env)
	if err != nil {
		return models.Entity{}, err
	}
	if e.ID == "" {
		return models.Entity{}, fmt.Errorf("%s %s: %w", r.schema.Kind, key, common.ErrNotFound)
	}
	return e, nil
}

func (r *Resource) Delete(ctx context.Context, id string) error {
	if r.schema.Endpoints.Delete == "" {
		return fmt.Errorf("%s delete: %w", r.schema.Kind, common.ErrNotOffered)
	}
	_, err := r.c.do(ctx, http.MethodDelete, resources.Path(r.schema.Endpoints.Delete, id), nil, "")
	return err
}

// Move sends a reorder as source and destination indices. The reordered
// collection is returned when the API sends one back.
func (r *Resource) Move(ctx context.Context, from, to int) (reorder.Moved, error) {
	if r.schema.Endpoints.Move == "" {
		return reorder.Moved{}, fmt.Errorf("%s move: %w", r.schema.Kind, common.ErrNotOffered)
	}
	body := map[string]int{"sourceIndex": from, "destinationIndex": to}
	env, err := r.c.doJSON(ctx, http.MethodPut, r.schema.Endpoints.Move, body)
	if err != nil {
		return reorder.Moved{}, err
	}
	items, ok, err := r.decodeList(env)
	if err != nil {
		return reorder.Moved{}, err
	}
	moved := reorder.Moved{Message: env.Message}
	if ok {
		moved.Items = items
	}
	return moved, nil
}

// RemoveFile deletes the file attached to an entity.
func (r *Resource) RemoveFile(ctx context.Context, id, field string) error {
	if r.schema.Endpoints.RemoveFile == "" {
		return fmt.Errorf("%s remove %s: %w", r.schema.Kind, field, common.ErrNotOffered)
	}
	_, err := r.c.do(ctx, http.MethodDelete, resources.Path(r.schema.Endpoints.RemoveFile, id), nil, "")
	return err
}

func (r *Resource) send(ctx context.Context, method, path string, p models.Payload) (envelope, error) {
	fields := make(map[string]string, len(p.Fields))
	for k, v := range p.Fields {
		fields[r.schema.WireName(k)] = v
	}
	if !r.schema.Multipart {
		return r.c.doJSON(ctx, method, path, jsonFields(fields))
	}

	parts := make([]netx.Part, 0, len(p.Files))
	for _, field := range slices.Sorted(maps.Keys(p.Files)) {
		blob, err := r.open(ctx, field, p.Files[field])
		if err != nil {
			closeAll(parts)
			return envelope{}, err
		}
		parts = append(parts, netx.Part{Field: r.schema.WireName(field), FileName: blob.Name, ContentType: blob.ContentType, Body: blob.Body})
	}
	defer closeAll(parts)

	body, ct, err := netx.Multipart(fields, parts)
	if err != nil {
		return envelope{}, err
	}
	return r.c.do(ctx, method, path, body, ct)
}

func (r *Resource) open(ctx context.Context, field, uri string) (*blobsrc.Blob, error) {
	if r.c.files == nil {
		return nil, fmt.Errorf("attach %s: no file source configured", field)
	}
	blob, err := r.c.files.Open(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", field, err)
	}
	if f, ok := r.schema.Field(field); ok {
		if err := blobsrc.Check(blob, f.Accept, f.MaxBytes); err != nil {
			_ = blob.Body.Close()
			return nil, fmt.Errorf("attach %s: %w", field, err)
		}
	}
	return blob, nil
}

func closeAll(parts []netx.Part) {
	for _, p := range parts {
		if c, ok := p.Body.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

// jsonFields sends the order field as a number.
func jsonFields(fields map[string]string) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == models.OrderField {
			if n, err := strconv.Atoi(v); err == nil {
				out[k] = n
				continue
			}
		}
		out[k] = v
	}
	return out
}

// decodeList finds the entity array in env. The array may sit directly under
// "data" or the list key, or one level deeper.
func (r *Resource) decodeList(env envelope) ([]models.Entity, bool, error) {
	raw, ok := env.payload(r.schema.ListKey)
	if !ok {
		return nil, false, nil
	}
	var items []models.Entity
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, true, nil
	}

	inner := envelope{}
	if err := json.Unmarshal(raw, &inner.fields); err != nil {
		return nil, false, fmt.Errorf("decode %s list: %w", r.schema.Kind, err)
	}
	raw, ok = inner.payload(r.schema.ListKey)
	if !ok {
		return nil, false, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode %s list: %w", r.schema.Kind, err)
	}
	return items, true, nil
}

// decodeEntity returns the entity in env, or a zero entity when the
// response carries none.
func (r *Resource) decodeEntity(env envelope) (models.Entity, error) {
	raw, ok := env.payload(r.schema.ListKey, r.schema.ItemKey)
	if !ok || len(raw) == 0 || raw[0] != '{' {
		return models.Entity{}, nil
	}
	var e models.Entity
	if err := json.Unmarshal(raw, &e); err != nil {
		return models.Entity{}, fmt.Errorf("decode %s: %w", r.schema.Kind, err)
	}
	return e, nil
}
