package application

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/mailctl/internal/domain"
)

const (
	callList       = "list"
	callCreate     = "create"
	callDelete     = "delete"
	callStats      = "stats"
	callLogs       = "logs"
	callDeliveries = "deliveries"
	callSend       = "send"
)

// gate parks one call until released. arrived is closed once the call has
// captured its answer.
type gate struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gate) Release() {
	g.once.Do(func() { close(g.release) })
}

func (g *gate) waitArrived(t *testing.T) {
	t.Helper()
	select {
	case <-g.arrived:
	case <-time.After(5 * time.Second):
		t.Fatal("gated call never arrived")
	}
}

type gates struct {
	mu    sync.Mutex
	queue map[string][]*gate
}

func (g *gates) hold(t *testing.T, call string) *gate {
	t.Helper()
	h := &gate{arrived: make(chan struct{}), release: make(chan struct{})}
	g.mu.Lock()
	if g.queue == nil {
		g.queue = map[string][]*gate{}
	}
	g.queue[call] = append(g.queue[call], h)
	g.mu.Unlock()
	t.Cleanup(h.Release)
	return h
}

func (g *gates) pass(ctx context.Context, call string) error {
	g.mu.Lock()
	var h *gate
	if q := g.queue[call]; len(q) > 0 {
		h = q[0]
		g.queue[call] = q[1:]
	}
	g.mu.Unlock()
	if h == nil {
		return nil
	}

	close(h.arrived)
	select {
	case <-h.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type fakeResourceAPI struct {
	gates

	mu         sync.Mutex
	resources  []domain.WorkerResource
	stats      map[domain.ResourceID]domain.StatsSnapshot
	logs       map[domain.ResourceID][]string
	deliveries map[domain.ResourceID][]domain.DeliveryLogEntry
	report     domain.SendReport
	errs       map[string]error
	calls      map[string]int
	created    int
}

func newFakeResourceAPI(resources ...domain.WorkerResource) *fakeResourceAPI {
	return &fakeResourceAPI{
		resources:  resources,
		stats:      map[domain.ResourceID]domain.StatsSnapshot{},
		logs:       map[domain.ResourceID][]string{},
		deliveries: map[domain.ResourceID][]domain.DeliveryLogEntry{},
		errs:       map[string]error{},
		calls:      map[string]int{},
	}
}

func (f *fakeResourceAPI) setErr(call string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[call] = err
}

func (f *fakeResourceAPI) setResources(resources ...domain.WorkerResource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources = resources
}

func (f *fakeResourceAPI) setStats(id domain.ResourceID, stats domain.StatsSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats.ResourceID = id
	f.stats[id] = stats
}

func (f *fakeResourceAPI) setLogs(id domain.ResourceID, lines ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs[id] = lines
}

func (f *fakeResourceAPI) setDeliveries(id domain.ResourceID, entries ...domain.DeliveryLogEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries[id] = entries
}

func (f *fakeResourceAPI) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[call]
}

// begin records the call and returns its configured error.
func (f *fakeResourceAPI) begin(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[call]++
	return f.errs[call]
}

func (f *fakeResourceAPI) ListResources(ctx context.Context) ([]domain.WorkerResource, error) {
	err := f.begin(callList)
	f.mu.Lock()
	resources := append([]domain.WorkerResource(nil), f.resources...)
	f.mu.Unlock()
	if gateErr := f.pass(ctx, callList); gateErr != nil {
		return nil, gateErr
	}
	if err != nil {
		return nil, err
	}
	return resources, nil
}

func (f *fakeResourceAPI) CreateResource(ctx context.Context) error {
	err := f.begin(callCreate)
	if gateErr := f.pass(ctx, callCreate); gateErr != nil {
		return gateErr
	}
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	f.resources = append(f.resources, domain.WorkerResource{
		ID:     domain.ResourceID("new-" + strings.Repeat("x", f.created)),
		Status: domain.ResourceStatusRunning,
	})
	return nil
}

func (f *fakeResourceAPI) DeleteResource(ctx context.Context, id domain.ResourceID) error {
	err := f.begin(callDelete)
	if gateErr := f.pass(ctx, callDelete); gateErr != nil {
		return gateErr
	}
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.resources[:0]
	for _, r := range f.resources {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	f.resources = kept
	return nil
}

func (f *fakeResourceAPI) FetchStats(ctx context.Context, id domain.ResourceID) (domain.StatsSnapshot, error) {
	err := f.begin(callStats)
	f.mu.Lock()
	stats := f.stats[id]
	f.mu.Unlock()
	if gateErr := f.pass(ctx, callStats); gateErr != nil {
		return domain.StatsSnapshot{}, gateErr
	}
	if err != nil {
		return domain.StatsSnapshot{}, err
	}
	stats.ResourceID = id
	return stats, nil
}

func (f *fakeResourceAPI) FetchLogs(ctx context.Context, id domain.ResourceID, filter domain.LogFilter) (domain.LogBundle, error) {
	err := f.begin(callLogs)
	f.mu.Lock()
	lines := append([]string(nil), f.logs[id]...)
	f.mu.Unlock()
	if gateErr := f.pass(ctx, callLogs); gateErr != nil {
		return domain.LogBundle{}, gateErr
	}
	if err != nil {
		return domain.LogBundle{}, err
	}

	if filter == domain.LogFilterError {
		kept := lines[:0]
		for _, line := range lines {
			if strings.Contains(strings.ToLower(line), "error") {
				kept = append(kept, line)
			}
		}
		lines = kept
	}
	return domain.LogBundle{ResourceID: id, Filter: filter, Text: strings.Join(lines, "\n")}, nil
}

func (f *fakeResourceAPI) FetchDeliveryLog(ctx context.Context, id domain.ResourceID) ([]domain.DeliveryLogEntry, error) {
	err := f.begin(callDeliveries)
	f.mu.Lock()
	entries := append([]domain.DeliveryLogEntry(nil), f.deliveries[id]...)
	f.mu.Unlock()
	if gateErr := f.pass(ctx, callDeliveries); gateErr != nil {
		return nil, gateErr
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (f *fakeResourceAPI) SendBatch(ctx context.Context, id domain.ResourceID) (domain.SendReport, error) {
	err := f.begin(callSend)
	if gateErr := f.pass(ctx, callSend); gateErr != nil {
		return domain.SendReport{}, gateErr
	}
	if err != nil {
		return domain.SendReport{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	report := f.report
	report.ResourceID = id
	return report, nil
}

type fakeTemplateAPI struct {
	mu        sync.Mutex
	templates []domain.Template
	saved     []domain.TemplateDraft
	deleted   []domain.TemplateID
	nextID    int
	saveErr   error
	listErr   error
}

func (f *fakeTemplateAPI) ListTemplates(context.Context) ([]domain.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Template(nil), f.templates...), nil
}

func (f *fakeTemplateAPI) SaveTemplate(_ context.Context, draft domain.TemplateDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.nextID++
	f.saved = append(f.saved, draft)
	f.templates = append(f.templates, domain.Template{
		ID:     domain.TemplateID(strings.Repeat("t", f.nextID)),
		Name:   draft.Name,
		HTML:   draft.HTML,
		Design: draft.Design,
	})
	return nil
}

func (f *fakeTemplateAPI) DeleteTemplate(_ context.Context, id domain.TemplateID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	kept := f.templates[:0]
	for _, tpl := range f.templates {
		if tpl.ID != id {
			kept = append(kept, tpl)
		}
	}
	f.templates = kept
	return nil
}

type fakeEditor struct {
	html   string
	design json.RawMessage
	loaded []json.RawMessage
}

func (e *fakeEditor) ExportContent(context.Context) (string, json.RawMessage, error) {
	return e.html, e.design, nil
}

func (e *fakeEditor) LoadContent(_ context.Context, design json.RawMessage) error {
	e.loaded = append(e.loaded, design)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("operation did not finish")
	}
}
