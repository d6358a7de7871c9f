package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/adminconsole/internal/client/draft"
	"github.com/dmitrijs2005/adminconsole/internal/client/mutation"
	"github.com/dmitrijs2005/adminconsole/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/adminconsole/internal/client/resources"
	"github.com/dmitrijs2005/adminconsole/internal/client/services"
	"github.com/dmitrijs2005/adminconsole/internal/client/validation"
	"github.com/dmitrijs2005/adminconsole/internal/common"
)

var errNoResource = errors.New("no resource selected, try 'use <resource>'")

func (a *App) screen() (*services.Screen, error) {
	if a.current == nil {
		a.report(errNoResource)
		return nil, errNoResource
	}
	return a.current, nil
}

// report prints err unless it was already shown through the notifier.
func (a *App) report(err error) {
	var fields validation.ErrorMap
	switch {
	case err == nil:
	case common.IsRemoteFailure(err), errors.Is(err, common.ErrStaleTarget):
	case errors.As(err, &fields):
		for _, f := range slices.Sorted(maps.Keys(fields)) {
			fmt.Fprintln(a.out, styles.failure.Render(fmt.Sprintf("  %s: %s", f, fields[f])))
		}
	default:
		fmt.Fprintln(a.out, styles.failure.Render("error: "+err.Error()))
	}
}

func (a *App) Resources() {
	for _, k := range resources.Kinds() {
		s, _ := resources.Lookup(k)
		fmt.Fprintf(a.out, "%-10s %s\n", k, s.Title)
	}
}

// Use switches to the resource named kind, loading it on first use.
func (a *App) Use(ctx context.Context, kind string) error {
	schema, err := resources.Lookup(resources.Kind(strings.ToLower(kind)))
	if err != nil {
		a.report(err)
		return err
	}

	sc, ok := a.screens[schema.Kind]
	if !ok {
		sc = services.NewScreen(schema, services.Deps{
			Remote:    a.deps.Remotes(schema),
			Snapshots: a.deps.Snapshots,
			Notifier:  a.notify,
			Log:       a.log,
			PageSize:  a.deps.PageSize,
		})
		if err := sc.Activate(ctx); err != nil {
			return err
		}
		a.screens[schema.Kind] = sc
	}
	a.current = sc

	if a.deps.Metadata != nil {
		if err := a.deps.Metadata.Set(ctx, metadata.KeyResource, string(schema.Kind)); err != nil {
			a.log.Warn(ctx, "remember resource", "error", err)
		}
	}
	return a.List(ctx)
}

func (a *App) List(_ context.Context) error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	pos := make(map[string]int)
	for i, e := range sc.Items() {
		pos[e.ID] = i
	}
	renderPage(a.out, sc.Schema(), sc.View(), func(id string) int { return pos[id] })
	if offline, at := sc.Offline(); offline {
		fmt.Fprintln(a.out, styles.muted.Render("offline: showing the copy saved "+at.Local().Format("Jan 2 15:04")))
	}
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	if err := sc.Refresh(ctx); err != nil {
		return err
	}
	return a.List(ctx)
}

func (a *App) Search(query string) {
	sc, err := a.screen()
	if err != nil {
		return
	}
	sc.SetFilter(query)
	_ = a.List(context.Background())
}

func (a *App) Sort(field string) error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	if !slices.Contains(sc.SortFields(), field) {
		err := fmt.Errorf("cannot sort by %q, choose one of: %s", field, strings.Join(sc.SortFields(), ", "))
		a.report(err)
		return err
	}
	sc.SetSort(field)
	return a.List(context.Background())
}

// Page shows page n, counted from 1.
func (a *App) Page(n int) error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	if n < 1 {
		err := fmt.Errorf("page must be 1 or more")
		a.report(err)
		return err
	}
	sc.SetPage(n - 1)
	return a.List(context.Background())
}

func (a *App) Add() error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	sess, err := sc.OpenAdd()
	if err != nil {
		a.report(err)
		return err
	}
	a.showDraft(sc, sess)
	return nil
}

// Edit opens the drawer on the entity addressed by an id or key.
func (a *App) Edit(ctx context.Context, key string) error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	e, err := sc.Lookup(ctx, key)
	if err != nil {
		a.report(err)
		return err
	}
	sess, err := sc.OpenEdit(e.ID)
	if err != nil {
		a.report(err)
		return err
	}
	a.showDraft(sc, sess)
	return nil
}

// Show prints every field of the entity addressed by an id or key.
func (a *App) Show(ctx context.Context, key string) error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	e, err := sc.Lookup(ctx, key)
	if err != nil {
		a.report(err)
		return err
	}
	schema := sc.Schema()
	fmt.Fprintln(a.out, styles.title.Render(fmt.Sprintf("%s %s", schema.Title, e.ID)))
	for _, f := range schema.Fields {
		v := e.Get(f.Name)
		if v == "" {
			v = "(none)"
		}
		fmt.Fprintf(a.out, "  %-12s %s\n", f.Name, v)
	}
	return nil
}

func (a *App) showDraft(sc *services.Screen, sess *draft.Session) {
	schema := sc.Schema()
	fmt.Fprintln(a.out, styles.title.Render(fmt.Sprintf("%s: %s", schema.Title, sess.Mode())))
	values := sess.Values()
	for _, f := range schema.Fields {
		v := values[f.Name]
		if f.File {
			v = "(none)"
			if url, ok := sess.ExistingFile(f.Name); ok {
				v = url
			}
		}
		fmt.Fprintf(a.out, "  %-12s %s\n", f.Name, truncate(v, 60))
	}
	if slots := sc.AvailableOrders(); schema.Order == resources.OrderSlots {
		fmt.Fprintf(a.out, "  free slots: %s\n", joinInts(slots))
	}
}

// Set changes a draft field. An empty value prompts for multi-line text.
func (a *App) Set(field, value string) error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	if value == "" {
		label := field
		if f, ok := sc.Schema().Field(field); ok {
			label = f.Label
		}
		if value, err = GetMultiline(a.reader, "Enter "+label, a.out); err != nil {
			a.report(err)
			return err
		}
	}
	if err := sc.SetField(field, value); err != nil {
		a.report(err)
		return err
	}
	return nil
}

func (a *App) Attach(field, uri string) error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	if err := sc.AttachFile(field, uri); err != nil {
		a.report(err)
		return err
	}
	return nil
}

func (a *App) RemoveFile(ctx context.Context, field string) error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	if err := sc.RemoveExistingFile(ctx, field); err != nil {
		a.report(err)
		return err
	}
	return nil
}

func (a *App) Submit(ctx context.Context) error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	if _, err := sc.SubmitDraft(ctx); err != nil {
		a.report(err)
		return err
	}
	return a.List(ctx)
}

func (a *App) Cancel() {
	sc, err := a.screen()
	if err != nil {
		return
	}
	if sc.Drawer().Close() != nil {
		fmt.Fprintln(a.out, "drawer closed")
	}
}

// Delete removes id after the user confirms. force skips the question.
func (a *App) Delete(ctx context.Context, id string, force bool) error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	var confirm mutation.Confirmer = promptConfirmer{reader: a.reader, w: a.out}
	if force {
		confirm = mutation.ConfirmFunc(func(context.Context, string) bool { return true })
	}
	if err := sc.RequestDelete(ctx, id, confirm); err != nil {
		if errors.Is(err, common.ErrDeleteNotConfirmed) {
			fmt.Fprintln(a.out, "delete cancelled")
		} else {
			a.report(err)
		}
		return err
	}
	return a.List(ctx)
}

// Move moves the entity at position from to position to, both counted
// from 1 in collection order.
func (a *App) Move(ctx context.Context, from, to int) error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	if err := sc.RequestMove(ctx, from-1, to-1); err != nil {
		a.report(err)
		return err
	}
	return a.List(ctx)
}

func (a *App) Slots() error {
	sc, err := a.screen()
	if err != nil {
		return err
	}
	if sc.Schema().Order != resources.OrderSlots {
		err := fmt.Errorf("%s has no order slots", sc.Schema().Title)
		a.report(err)
		return err
	}
	fmt.Fprintln(a.out, "free slots:", joinInts(sc.AvailableOrders()))
	return nil
}

func (a *App) Counts() {
	if a.poller == nil {
		fmt.Fprintln(a.out, styles.muted.Render("(counters unavailable)"))
		return
	}
	counts, at := a.poller.Counts()
	renderCounts(a.out, counts, at)
}

func joinInts(ns []int) string {
	if len(ns) == 0 {
		return "none"
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
