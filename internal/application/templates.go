package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/mailctl/internal/domain"
	"github.com/bnema/mailctl/internal/ports"
	"go.uber.org/zap"
)

// TemplateCatalog keeps the last fetched template list. Lookups by id only
// see that list, so an id that vanished server side is treated as missing.
type TemplateCatalog struct {
	api    ports.TemplateAPI
	logger *zap.Logger

	mu        sync.Mutex
	templates []domain.Template
	err       error
	selected  domain.TemplateID
}

func NewTemplateCatalog(api ports.TemplateAPI, logger *zap.Logger) *TemplateCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateCatalog{api: api, logger: logger.Named("templates")}
}

func (c *TemplateCatalog) Refresh(ctx context.Context) error {
	templates, err := c.api.ListTemplates(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.err = err
		c.logger.Warn("refresh failed", zap.Error(err))
		return fmt.Errorf("refresh templates: %w", err)
	}
	c.templates = templates
	c.err = nil
	return nil
}

func (c *TemplateCatalog) List() []domain.Template {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Template(nil), c.templates...)
}

func (c *TemplateCatalog) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *TemplateCatalog) Find(id domain.TemplateID) (domain.Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tpl := range c.templates {
		if tpl.ID == id {
			return tpl, true
		}
	}
	return domain.Template{}, false
}

// Load pushes the template's design into the editor. An unknown id leaves the
// editor untouched.
func (c *TemplateCatalog) Load(ctx context.Context, id domain.TemplateID, editor ports.TemplateEditor) (domain.Template, error) {
	tpl, ok := c.Find(id)
	if !ok {
		return domain.Template{}, fmt.Errorf("load template %s: %w", id, domain.ErrTemplateNotFound)
	}

	if err := editor.LoadContent(ctx, tpl.Design); err != nil {
		return domain.Template{}, fmt.Errorf("load template %s into editor: %w", id, err)
	}

	c.mu.Lock()
	c.selected = id
	c.mu.Unlock()
	return tpl, nil
}

func (c *TemplateCatalog) Selected() domain.TemplateID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}
