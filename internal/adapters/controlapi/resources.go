package controlapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bnema/mailctl/internal/domain"
)

func (c *Client) ListResources(ctx context.Context) ([]domain.WorkerResource, error) {
	var payload []resourcePayload
	if err := c.do(ctx, call{op: "list resources", method: http.MethodGet, path: "containers"}, &payload); err != nil {
		return nil, err
	}

	resources := make([]domain.WorkerResource, 0, len(payload))
	for _, p := range payload {
		resources = append(resources, p.toDomain())
	}
	return resources, nil
}

func (c *Client) CreateResource(ctx context.Context) error {
	return c.do(ctx, call{op: "create resource", method: http.MethodPost, path: "containers/create"}, nil)
}

func (c *Client) DeleteResource(ctx context.Context, id domain.ResourceID) error {
	return c.do(ctx, call{
		op:     "delete resource",
		method: http.MethodDelete,
		path:   "containers/delete/" + segment(string(id)),
	}, nil)
}

func (c *Client) FetchStats(ctx context.Context, id domain.ResourceID) (domain.StatsSnapshot, error) {
	var payload statsPayload
	err := c.do(ctx, call{
		op:     "fetch stats",
		method: http.MethodGet,
		path:   "containers/stats/" + segment(string(id)),
	}, &payload)
	if err != nil {
		return domain.StatsSnapshot{}, err
	}
	return payload.toDomain(id), nil
}

// FetchLogs omits the filter query entirely for the unfiltered view.
func (c *Client) FetchLogs(ctx context.Context, id domain.ResourceID, filter domain.LogFilter) (domain.LogBundle, error) {
	var query url.Values
	if filter != domain.LogFilterAll {
		query = url.Values{"filter": []string{string(filter)}}
	}

	var payload logsPayload
	err := c.do(ctx, call{
		op:     "fetch logs",
		method: http.MethodGet,
		path:   "containers/logs/" + segment(string(id)),
		query:  query,
	}, &payload)
	if err != nil {
		return domain.LogBundle{}, err
	}
	return domain.LogBundle{ResourceID: id, Filter: filter, Text: payload.Logs}, nil
}

func (c *Client) FetchDeliveryLog(ctx context.Context, id domain.ResourceID) ([]domain.DeliveryLogEntry, error) {
	var payload []deliveryPayload
	err := c.do(ctx, call{
		op:     "fetch delivery log",
		method: http.MethodGet,
		path:   "containers/maildata/" + segment(string(id)),
	}, &payload)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.DeliveryLogEntry, 0, len(payload))
	for _, p := range payload {
		entries = append(entries, p.toDomain())
	}
	return entries, nil
}

func (c *Client) SendBatch(ctx context.Context, id domain.ResourceID) (domain.SendReport, error) {
	var payload sendPayload
	err := c.do(ctx, call{
		op:     "send batch",
		method: http.MethodPost,
		path:   "containers/send-emails/" + segment(string(id)),
	}, &payload)
	if err != nil {
		return domain.SendReport{}, err
	}
	return payload.toDomain(id), nil
}
