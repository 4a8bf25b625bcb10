package controlapi

import (
	"context"
	"net/http"

	"github.com/bnema/mailctl/internal/domain"
)

func (c *Client) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	var payload []templatePayload
	if err := c.do(ctx, call{op: "list templates", method: http.MethodGet, path: "mails"}, &payload); err != nil {
		return nil, err
	}

	templates := make([]domain.Template, 0, len(payload))
	for _, p := range payload {
		templates = append(templates, p.toDomain())
	}
	return templates, nil
}

func (c *Client) SaveTemplate(ctx context.Context, draft domain.TemplateDraft) error {
	return c.do(ctx, call{
		op:     "save template",
		method: http.MethodPost,
		path:   "mails",
		body: templateDraftPayload{
			Name:   draft.Name,
			HTML:   draft.HTML,
			Design: draft.Design,
		},
	}, nil)
}

func (c *Client) DeleteTemplate(ctx context.Context, id domain.TemplateID) error {
	return c.do(ctx, call{
		op:     "delete template",
		method: http.MethodDelete,
		path:   "mails/" + segment(string(id)),
	}, nil)
}

// Generate posts the prompt to the generation endpoint. The caller owns the
// deadline; an empty result is returned as-is.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var payload generateResponse
	err := c.do(ctx, call{
		op:     "generate",
		method: http.MethodPost,
		path:   "generate",
		body:   generateRequest{Prompt: prompt},
	}, &payload)
	if err != nil {
		return "", err
	}
	return payload.Result, nil
}
