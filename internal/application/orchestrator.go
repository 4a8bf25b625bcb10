package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bnema/mailctl/internal/domain"
	"github.com/bnema/mailctl/internal/ports"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	minjson "github.com/tdewolff/minify/v2/json"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	mimeHTML = "text/html"
	mimeCSS  = "text/css"
	mimeJSON = "application/json"
)

type BusyFlags struct {
	Creating       bool
	Deleting       bool
	Sending        bool
	SavingTemplate bool
}

// Any reports whether a worker workflow is in flight. Template work is
// tracked separately and does not count.
func (b BusyFlags) Any() bool {
	return b.Creating || b.Deleting || b.Sending
}

type OrchestratorOptions struct {
	MinifyHTML bool
}

// Orchestrator runs the mutating workflows. Worker workflows share one
// destructive lock, so a second one started while another is in flight fails
// with ErrBusy instead of queueing. Template workflows hold their own lock.
type Orchestrator struct {
	resources ports.ResourceAPI
	templates ports.TemplateAPI
	registry  *Registry
	detail    *DetailController
	catalog   *TemplateCatalog
	logger    *zap.Logger
	minifier  *minify.M
	opts      OrchestratorOptions

	destructive  *semaphore.Weighted
	templateLock *semaphore.Weighted

	creating       atomic.Bool
	deleting       atomic.Bool
	sending        atomic.Bool
	savingTemplate atomic.Bool

	mu         sync.Mutex
	lastErr    string
	lastReport *domain.SendReport
}

func NewOrchestrator(
	resources ports.ResourceAPI,
	templates ports.TemplateAPI,
	registry *Registry,
	detail *DetailController,
	catalog *TemplateCatalog,
	opts OrchestratorOptions,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := minify.New()
	m.AddFunc(mimeHTML, html.Minify)
	m.AddFunc(mimeCSS, css.Minify)
	m.AddFunc(mimeJSON, minjson.Minify)

	return &Orchestrator{
		resources:    resources,
		templates:    templates,
		registry:     registry,
		detail:       detail,
		catalog:      catalog,
		logger:       logger.Named("orchestrator"),
		minifier:     m,
		opts:         opts,
		destructive:  semaphore.NewWeighted(1),
		templateLock: semaphore.NewWeighted(1),
	}
}

func (o *Orchestrator) Busy() BusyFlags {
	return BusyFlags{
		Creating:       o.creating.Load(),
		Deleting:       o.deleting.Load(),
		Sending:        o.sending.Load(),
		SavingTemplate: o.savingTemplate.Load(),
	}
}

func (o *Orchestrator) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

func (o *Orchestrator) LastReport() (domain.SendReport, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastReport == nil {
		return domain.SendReport{}, false
	}
	return *o.lastReport, true
}

// Create asks for a new worker and refreshes the list. A failed create
// leaves the list as it was.
func (o *Orchestrator) Create(ctx context.Context) error {
	if !o.destructive.TryAcquire(1) {
		return ErrBusy
	}
	defer o.destructive.Release(1)
	o.creating.Store(true)
	defer o.creating.Store(false)

	if err := o.resources.CreateResource(ctx); err != nil {
		return o.fail("create worker", fmt.Errorf("create worker: %w", err))
	}
	o.refreshAfter("create", o.registry.Refresh(ctx))

	o.succeed("worker created")
	return nil
}

// Delete removes a worker. If it was the open selection the detail view is
// closed before the list refresh, so any of its pending fetches are dropped.
func (o *Orchestrator) Delete(ctx context.Context, id domain.ResourceID) error {
	if !o.destructive.TryAcquire(1) {
		return ErrBusy
	}
	defer o.destructive.Release(1)
	o.deleting.Store(true)
	defer o.deleting.Store(false)

	if err := o.resources.DeleteResource(ctx, id); err != nil {
		return o.fail("delete worker", fmt.Errorf("delete worker %s: %w", id, err))
	}

	if o.detail.Invalidate(id) {
		o.logger.Debug("closed detail of deleted worker", zap.String("resource_id", string(id)))
	}
	o.refreshAfter("delete", o.registry.Refresh(ctx))

	o.succeed("worker deleted", zap.String("resource_id", string(id)))
	return nil
}

// SendBatch triggers one send run. Nothing is retried: a failure leaves the
// detail view untouched and may or may not have sent mail server side.
func (o *Orchestrator) SendBatch(ctx context.Context, id domain.ResourceID) (domain.SendReport, error) {
	if !o.destructive.TryAcquire(1) {
		return domain.SendReport{}, ErrBusy
	}
	defer o.destructive.Release(1)
	o.sending.Store(true)
	defer o.sending.Store(false)

	report, err := o.resources.SendBatch(ctx, id)
	if err != nil {
		return domain.SendReport{}, o.fail("send batch", fmt.Errorf("send batch to %s: %w", id, err))
	}

	o.mu.Lock()
	o.lastReport = &report
	o.mu.Unlock()

	o.detail.RefreshAfterSend(ctx, id)

	o.succeed("batch sent",
		zap.String("resource_id", string(id)),
		zap.String("sent_in_batch", report.SentInBatchLabel()),
		zap.String("total_sent", report.TotalSentLabel()),
	)
	return report, nil
}

// SaveTemplate exports the editor content and stores it under name.
func (o *Orchestrator) SaveTemplate(ctx context.Context, name string, editor ports.TemplateEditor) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("template name is required")
	}

	return o.withTemplateLock(func() error {
		markup, design, err := editor.ExportContent(ctx)
		if err != nil {
			return o.fail("export template", fmt.Errorf("export template: %w", err))
		}

		draft, err := o.prepareDraft(domain.TemplateDraft{Name: name, HTML: markup, Design: design})
		if err != nil {
			return o.fail("minify template", err)
		}

		if err := o.templates.SaveTemplate(ctx, draft); err != nil {
			return o.fail("save template", fmt.Errorf("save template: %w", err))
		}
		o.refreshAfter("template change", o.catalog.Refresh(ctx))

		o.succeed("template saved", zap.String("name", name))
		return nil
	})
}

// DuplicateTemplate stores a copy of a template from the last fetched
// catalog. A stale id fails without any request.
func (o *Orchestrator) DuplicateTemplate(ctx context.Context, id domain.TemplateID) error {
	return o.withTemplateLock(func() error {
		tpl, ok := o.catalog.Find(id)
		if !ok {
			return o.fail("duplicate template", fmt.Errorf("duplicate template %s: %w", id, domain.ErrTemplateNotFound))
		}

		draft := domain.TemplateDraft{Name: "Copy of " + tpl.Name, HTML: tpl.HTML, Design: tpl.Design}
		if err := o.templates.SaveTemplate(ctx, draft); err != nil {
			return o.fail("duplicate template", fmt.Errorf("duplicate template %s: %w", id, err))
		}
		o.refreshAfter("template change", o.catalog.Refresh(ctx))

		o.succeed("template duplicated", zap.String("template_id", string(id)))
		return nil
	})
}

func (o *Orchestrator) DeleteTemplate(ctx context.Context, id domain.TemplateID) error {
	return o.withTemplateLock(func() error {
		if err := o.templates.DeleteTemplate(ctx, id); err != nil {
			return o.fail("delete template", fmt.Errorf("delete template %s: %w", id, err))
		}
		o.refreshAfter("template change", o.catalog.Refresh(ctx))

		o.succeed("template deleted", zap.String("template_id", string(id)))
		return nil
	})
}

func (o *Orchestrator) withTemplateLock(fn func() error) error {
	if !o.templateLock.TryAcquire(1) {
		return ErrBusy
	}
	defer o.templateLock.Release(1)
	o.savingTemplate.Store(true)
	defer o.savingTemplate.Store(false)

	return fn()
}

func (o *Orchestrator) prepareDraft(draft domain.TemplateDraft) (domain.TemplateDraft, error) {
	if !o.opts.MinifyHTML {
		return draft, nil
	}

	markup, err := o.minifier.String(mimeHTML, draft.HTML)
	if err != nil {
		return domain.TemplateDraft{}, fmt.Errorf("minify template html: %w", err)
	}
	draft.HTML = markup

	if len(draft.Design) > 0 {
		design, err := o.minifier.Bytes(mimeJSON, draft.Design)
		if err != nil {
			return domain.TemplateDraft{}, fmt.Errorf("minify template design: %w", err)
		}
		draft.Design = json.RawMessage(design)
	}
	return draft, nil
}

// refreshAfter logs a failed list reload that followed a mutation which went
// through. The list keeps that error itself, so the workflow still succeeds.
func (o *Orchestrator) refreshAfter(op string, err error) {
	if err != nil {
		o.logger.Warn("refresh after "+op+" failed", zap.Error(err))
	}
}

func (o *Orchestrator) fail(op string, err error) error {
	o.logger.Warn(op+" failed", zap.Error(err))
	o.mu.Lock()
	o.lastErr = DescribeError(err)
	o.mu.Unlock()
	return err
}

func (o *Orchestrator) succeed(msg string, fields ...zap.Field) {
	o.logger.Info(msg, fields...)
	o.mu.Lock()
	o.lastErr = ""
	o.mu.Unlock()
}
