package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/adminconsole/internal/client/resources"
	"github.com/dmitrijs2005/adminconsole/internal/client/services"
	"github.com/dmitrijs2005/adminconsole/internal/common"
)

type fakeRemote struct {
	services.Remote

	items     []models.Entity
	createErr error
	deleted   []string
	updated   []string
}

func (f *fakeRemote) List(context.Context) ([]models.Entity, error) {
	return models.CloneAll(f.items), nil
}

func (f *fakeRemote) Create(_ context.Context, p models.Payload) (models.Entity, error) {
	if f.createErr != nil {
		return models.Entity{}, f.createErr
	}
	return p.Entity("new-1", len(f.items)+1), nil
}

// Update answers without a body, as the form endpoints do.
func (f *fakeRemote) Update(_ context.Context, id string, _ models.Payload) (models.Entity, error) {
	f.updated = append(f.updated, id)
	return models.Entity{}, nil
}

func (f *fakeRemote) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type memMetadata struct {
	mu sync.Mutex
	kv map[string][]byte
}

func (m *memMetadata) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.kv[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (m *memMetadata) Set(_ context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.kv == nil {
		m.kv = map[string][]byte{}
	}
	m.kv[key] = b
	return nil
}

func (m *memMetadata) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}

type staticCounts map[string]int

func (s staticCounts) Counts(context.Context) (map[string]int, error) { return s, nil }

func questions() []models.Entity {
	return []models.Entity{
		{ID: "1", Order: 1, Fields: map[string]string{"question": "Where are you based?", "answer": "Riga"}},
		{ID: "2", Order: 2, Fields: map[string]string{"question": "Do you offer refunds?", "answer": "Yes"}},
	}
}

func newTestApp(t *testing.T, r *fakeRemote, meta *memMetadata, input string) (*App, *bytes.Buffer) {
	t.Helper()
	silencePrintln(t)
	var out bytes.Buffer
	a := New(Deps{
		Remotes:  func(resources.Schema) services.Remote { return r },
		Metadata: meta,
		PageSize: 6,
	}, strings.NewReader(input), &out, nil)
	return a, &out
}

func script(lines ...string) string { return strings.Join(lines, "\n") + "\n" }

func TestApp_AddQuestion(t *testing.T) {
	r := &fakeRemote{items: questions()}
	meta := &memMetadata{}
	a, out := newTestApp(t, r, meta, script(
		"use chatbot",
		"add",
		"set question Do you ship abroad?",
		"set answer",
		"We ship to every country in the European Union within five working days.",
		"",
		"submit",
		"exit",
	))

	a.Run(context.Background())

	assert.Contains(t, out.String(), "Chatbot Questions created")
	assert.Contains(t, out.String(), "Do you ship abroad?")
	require.Len(t, a.current.Items(), 3)
	assert.Equal(t, "new-1", a.current.Items()[2].ID)
	assert.False(t, a.current.Drawer().IsOpen())

	var kind string
	ok, err := meta.Get(context.Background(), metadata.KeyResource, &kind)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "chatbot", kind)
}

func TestApp_RejectedCreateShownOnce(t *testing.T) {
	r := &fakeRemote{items: questions(), createErr: &common.RemoteError{Status: 400, Message: "Question limit reached"}}
	a, out := newTestApp(t, r, nil, script(
		"use chatbot",
		"add",
		"set question Do you ship abroad?",
		"set answer one two three four five six seven eight nine ten eleven",
		"submit",
	))

	a.Run(context.Background())

	assert.Equal(t, 1, strings.Count(out.String(), "Question limit reached"))
	assert.Len(t, a.current.Items(), 2)
	assert.True(t, a.current.Drawer().IsOpen(), "draft kept for a retry")
}

func TestApp_ValidationErrorsListed(t *testing.T) {
	a, out := newTestApp(t, &fakeRemote{items: questions()}, nil, script(
		"use chatbot",
		"add",
		"set question Where are you based?",
		"submit",
	))

	a.Run(context.Background())

	assert.Contains(t, out.String(), "This question already exists. Try a different one.")
	assert.Contains(t, out.String(), "answer: Answer should be between 10 and 45 words.")
}

func TestApp_DeleteNeedsConfirmation(t *testing.T) {
	stubTerminal(t, false)
	r := &fakeRemote{items: questions()}
	a, out := newTestApp(t, r, nil, script(
		"use chatbot",
		"delete 1",
		"delete 2 --yes",
	))

	a.Run(context.Background())

	assert.Contains(t, out.String(), "delete cancelled")
	assert.Equal(t, []string{"2"}, r.deleted)
	require.Len(t, a.current.Items(), 1)
	assert.Equal(t, "1", a.current.Items()[0].ID)
}

func TestApp_NoResourceSelected(t *testing.T) {
	a, out := newTestApp(t, &fakeRemote{}, nil, script("list", "use nope", "slots"))

	a.Run(context.Background())

	assert.Contains(t, out.String(), errNoResource.Error())
	assert.Contains(t, out.String(), "unknown resource")
	assert.Nil(t, a.current)
}

func TestApp_SlotsAndSort(t *testing.T) {
	r := &fakeRemote{items: []models.Entity{{ID: "s1", Order: 2, Fields: map[string]string{"heading": "Hello"}}}}
	a, out := newTestApp(t, r, nil, script("use slider", "slots", "sort colour", "use chatbot", "slots"))

	a.Run(context.Background())

	assert.Contains(t, out.String(), "free slots: 1, 3, 4, 5, 6, 7, 8")
	assert.Contains(t, out.String(), `cannot sort by "colour"`)
	assert.Contains(t, out.String(), "Chatbot Questions has no order slots")
}

func TestApp_RestoreAndSaveCounts(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	meta := &memMetadata{}
	require.NoError(t, meta.Set(ctx, metadata.KeyResource, "chatbot"))
	require.NoError(t, meta.Set(ctx, metadata.KeyCounts, countsRecord{Counts: map[string]int{"chat.total": 2}, At: at}))

	silencePrintln(t)
	var out bytes.Buffer
	a := New(Deps{
		Remotes:      func(resources.Schema) services.Remote { return &fakeRemote{items: questions()} },
		Counts:       staticCounts{"chat.total": 3},
		Metadata:     meta,
		PollInterval: time.Hour,
	}, strings.NewReader(""), &out, nil)

	a.restore(ctx)
	require.NotNil(t, a.current)
	assert.Equal(t, resources.KindChatbot, a.current.Schema().Kind)

	a.Counts()
	assert.Contains(t, out.String(), "chat.total")
	assert.Contains(t, out.String(), "2")

	a.saveCounts(map[string]int{"chat.total": 3})
	var rec countsRecord
	ok, err := meta.Get(ctx, metadata.KeyCounts, &rec)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"chat.total": 3}, rec.Counts)
	assert.True(t, rec.At.After(at))
}

func TestApp_Status(t *testing.T) {
	a, _ := newTestApp(t, &fakeRemote{items: questions()}, nil, "")
	assert.Empty(t, a.status())

	require.NoError(t, a.Use(context.Background(), "chatbot"))
	assert.Equal(t, "(chatbot)", a.status())

	require.NoError(t, a.Add())
	assert.Equal(t, "(chatbot, add)", a.status())
}

func TestApp_TooltipUpsertByFieldType(t *testing.T) {
	r := &fakeRemote{}
	a, out := newTestApp(t, r, nil, script(
		"use tooltip",
		"add",
		"set fieldType email",
		"set title Email",
		"set content Your work address",
		"submit",
		"add",
		"set fieldType email",
		"set content We reply within a day",
		"submit",
		"show email",
		"edit phoneNumber",
	))

	a.Run(context.Background())

	require.Len(t, a.current.Items(), 1, "the second save updated the first tooltip")
	assert.Equal(t, []string{"new-1"}, r.updated)
	tip := a.current.Items()[0]
	assert.Equal(t, "We reply within a day", tip.Get("content"))
	assert.Equal(t, "Email", tip.Get("title"), "untouched fields survive a bodiless update")
	assert.Contains(t, out.String(), "Tooltips updated")
	assert.Contains(t, out.String(), "We reply within a day")
	assert.Contains(t, out.String(), "tooltip phoneNumber: not found")
}

func TestApp_OrganizationIsSingleAndKept(t *testing.T) {
	r := &fakeRemote{items: []models.Entity{{ID: "org-1", Fields: map[string]string{
		"email": "ops@acme.io", "companyName": "Acme", "phoneNumber": "911234567890", "logo": "https://cdn.test/acme.png",
	}}}}
	a, out := newTestApp(t, r, nil, script(
		"use organization",
		"add",
		"delete org-1 --yes",
		"edit org-1",
		"set companyName Acme Group",
		"submit",
	))

	a.Run(context.Background())

	assert.Contains(t, out.String(), common.ErrCapacityExceeded.Error())
	assert.Contains(t, out.String(), common.ErrNotOffered.Error())
	assert.Empty(t, r.deleted)
	assert.Equal(t, []string{"org-1"}, r.updated)
	org := a.current.Items()[0]
	assert.Equal(t, "Acme Group", org.Get("companyName"))
	assert.Equal(t, "https://cdn.test/acme.png", org.Get("logo"))
}
