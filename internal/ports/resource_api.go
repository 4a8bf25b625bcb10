package ports

import (
	"context"

	"github.com/bnema/mailctl/internal/domain"
)

type ResourceAPI interface {
	ListResources(ctx context.Context) ([]domain.WorkerResource, error)
	CreateResource(ctx context.Context) error
	DeleteResource(ctx context.Context, id domain.ResourceID) error
	FetchStats(ctx context.Context, id domain.ResourceID) (domain.StatsSnapshot, error)
	FetchLogs(ctx context.Context, id domain.ResourceID, filter domain.LogFilter) (domain.LogBundle, error)
	FetchDeliveryLog(ctx context.Context, id domain.ResourceID) ([]domain.DeliveryLogEntry, error)
	SendBatch(ctx context.Context, id domain.ResourceID) (domain.SendReport, error)
}

type TemplateAPI interface {
	ListTemplates(ctx context.Context) ([]domain.Template, error)
	SaveTemplate(ctx context.Context, draft domain.TemplateDraft) error
	DeleteTemplate(ctx context.Context, id domain.TemplateID) error
}

// Generator turns a prompt into text. An empty string is a valid result.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
