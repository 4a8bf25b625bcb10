package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/mailctl/internal/domain"
	"github.com/bnema/mailctl/internal/ports"
	"go.uber.org/zap"
)

type RegistrySnapshot struct {
	Resources   []domain.WorkerResource
	Err         error
	RefreshedAt time.Time
}

// Registry holds the last fetched worker list. Refreshes are not
// de-duplicated: when two overlap, whichever completes last wins, even if it
// was issued first.
type Registry struct {
	api    ports.ResourceAPI
	clock  ports.Clock
	logger *zap.Logger

	mu          sync.Mutex
	resources   []domain.WorkerResource
	err         error
	refreshedAt time.Time
}

func NewRegistry(api ports.ResourceAPI, clock ports.Clock, logger *zap.Logger) *Registry {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		api:    api,
		clock:  clock,
		logger: logger.Named("registry"),
	}
}

// Refresh replaces the list on success. On failure the previous list stays
// and the error is recorded until the next successful refresh.
func (r *Registry) Refresh(ctx context.Context) error {
	resources, err := r.api.ListResources(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.err = err
		r.logger.Warn("refresh failed", zap.Error(err))
		return fmt.Errorf("refresh resources: %w", err)
	}

	r.resources = resources
	r.err = nil
	r.refreshedAt = r.clock.Now()
	r.logger.Debug("refreshed", zap.Int("count", len(resources)))
	return nil
}

func (r *Registry) List() []domain.WorkerResource {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.WorkerResource(nil), r.resources...)
}

func (r *Registry) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Registry) Snapshot() RegistrySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RegistrySnapshot{
		Resources:   append([]domain.WorkerResource(nil), r.resources...),
		Err:         r.err,
		RefreshedAt: r.refreshedAt,
	}
}

// Find looks an id up in the last fetched list.
func (r *Registry) Find(id domain.ResourceID) (domain.WorkerResource, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.resources {
		if res.ID == id {
			return res, true
		}
	}
	return domain.WorkerResource{}, false
}
