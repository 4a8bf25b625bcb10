package ports

import (
	"context"
	"encoding/json"
)

type TemplateEditor interface {
	ExportContent(ctx context.Context) (html string, design json.RawMessage, err error)
	LoadContent(ctx context.Context, design json.RawMessage) error
}
