package application

import (
	"context"
	"sync"

	"github.com/bnema/mailctl/internal/domain"
	"github.com/bnema/mailctl/internal/ports"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// DetailView is a copy of the detail state. When Open is false every other
// field is zero.
type DetailView struct {
	Open       bool
	ResourceID domain.ResourceID
	Filter     domain.LogFilter

	Stats      *domain.StatsSnapshot
	Logs       *domain.LogBundle
	Deliveries []domain.DeliveryLogEntry

	StatsLoading      bool
	LogsLoading       bool
	DeliveriesLoading bool

	StatsErr      error
	LogsErr       error
	DeliveriesErr error
}

// DetailController owns the Closed/Open(id) selection. Every response is
// tagged with the selection generation it was issued under and dropped if the
// generation moved on. Log responses also carry a sequence number so that
// only the latest filter's answer lands.
type DetailController struct {
	api    ports.ResourceAPI
	logger *zap.Logger

	mu         sync.Mutex
	state      DetailView
	generation uint64
	logSeq     uint64
}

func NewDetailController(api ports.ResourceAPI, logger *zap.Logger) *DetailController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetailController{api: api, logger: logger.Named("detail")}
}

// Select opens id and loads its logs, stats and delivery log concurrently.
// Switching to a different id clears the previous id's data and resets the
// log filter. It returns the view once all three fetches have settled.
func (c *DetailController) Select(ctx context.Context, id domain.ResourceID) DetailView {
	if c == nil {
		return DetailView{}
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	if !c.state.Open || c.state.ResourceID != id {
		c.state = DetailView{Open: true, ResourceID: id, Filter: domain.LogFilterAll}
	}
	c.logSeq++
	seq := c.logSeq
	filter := c.state.Filter
	c.state.StatsLoading = true
	c.state.LogsLoading = true
	c.state.DeliveriesLoading = true
	c.mu.Unlock()

	p := pool.New()
	p.Go(func() { c.loadLogs(ctx, gen, seq, id, filter) })
	p.Go(func() { c.loadStats(ctx, gen, id) })
	p.Go(func() { c.loadDeliveries(ctx, gen, id) })
	p.Wait()

	return c.View()
}

// SetFilter switches the log filter of the open view and re-fetches only the
// log bundle. It is a no-op while closed.
func (c *DetailController) SetFilter(ctx context.Context, filter domain.LogFilter) DetailView {
	if c == nil {
		return DetailView{}
	}

	c.mu.Lock()
	if !c.state.Open {
		c.mu.Unlock()
		return DetailView{}
	}
	c.state.Filter = filter
	c.logSeq++
	seq := c.logSeq
	gen := c.generation
	id := c.state.ResourceID
	c.state.LogsLoading = true
	c.mu.Unlock()

	c.loadLogs(ctx, gen, seq, id, filter)
	return c.View()
}

// RefreshAfterSend re-fetches stats and logs, keeping the active filter, but
// only if id is still the open selection.
func (c *DetailController) RefreshAfterSend(ctx context.Context, id domain.ResourceID) {
	if c == nil {
		return
	}

	c.mu.Lock()
	if !c.state.Open || c.state.ResourceID != id {
		c.mu.Unlock()
		return
	}
	gen := c.generation
	c.logSeq++
	seq := c.logSeq
	filter := c.state.Filter
	c.state.StatsLoading = true
	c.state.LogsLoading = true
	c.mu.Unlock()

	p := pool.New()
	p.Go(func() { c.loadStats(ctx, gen, id) })
	p.Go(func() { c.loadLogs(ctx, gen, seq, id, filter) })
	p.Wait()
}

func (c *DetailController) Close() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// Invalidate closes the view if id is the open selection and reports whether
// it did.
func (c *DetailController) Invalidate(id domain.ResourceID) bool {
	if c == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Open || c.state.ResourceID != id {
		return false
	}
	c.closeLocked()
	return true
}

func (c *DetailController) IsOpen(id domain.ResourceID) bool {
	if c == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Open && c.state.ResourceID == id
}

func (c *DetailController) View() DetailView {
	if c == nil {
		return DetailView{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	view := c.state
	if c.state.Stats != nil {
		stats := *c.state.Stats
		view.Stats = &stats
	}
	if c.state.Logs != nil {
		logs := *c.state.Logs
		view.Logs = &logs
	}
	view.Deliveries = append([]domain.DeliveryLogEntry(nil), c.state.Deliveries...)
	return view
}

func (c *DetailController) closeLocked() {
	c.generation++
	c.state = DetailView{}
}

func (c *DetailController) current(gen uint64) bool {
	return c.state.Open && c.generation == gen
}

func (c *DetailController) loadLogs(ctx context.Context, gen, seq uint64, id domain.ResourceID, filter domain.LogFilter) {
	bundle, err := c.api.FetchLogs(ctx, id, filter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(gen) || c.logSeq != seq {
		c.logger.Debug("dropped stale logs", zap.String("resource_id", string(id)), zap.String("filter", filter.Label()))
		return
	}

	c.state.LogsLoading = false
	if err != nil {
		c.state.LogsErr = err
		c.logger.Warn("fetch logs failed", zap.String("resource_id", string(id)), zap.Error(err))
		return
	}
	c.state.Logs = &bundle
	c.state.LogsErr = nil
}

func (c *DetailController) loadStats(ctx context.Context, gen uint64, id domain.ResourceID) {
	stats, err := c.api.FetchStats(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(gen) {
		c.logger.Debug("dropped stale stats", zap.String("resource_id", string(id)))
		return
	}

	c.state.StatsLoading = false
	if err != nil {
		c.state.StatsErr = err
		c.logger.Warn("fetch stats failed", zap.String("resource_id", string(id)), zap.Error(err))
		return
	}
	c.state.Stats = &stats
	c.state.StatsErr = nil
}

func (c *DetailController) loadDeliveries(ctx context.Context, gen uint64, id domain.ResourceID) {
	entries, err := c.api.FetchDeliveryLog(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(gen) {
		c.logger.Debug("dropped stale delivery log", zap.String("resource_id", string(id)))
		return
	}

	c.state.DeliveriesLoading = false
	if err != nil {
		c.state.DeliveriesErr = err
		c.logger.Warn("fetch delivery log failed", zap.String("resource_id", string(id)), zap.Error(err))
		return
	}
	c.state.Deliveries = entries
	c.state.DeliveriesErr = nil
}
