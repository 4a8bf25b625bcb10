package controlapi

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/bnema/mailctl/internal/domain"
)

// looseString accepts a JSON string or number, since ids come back in
// either form depending on the backing store.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

type resourcePayload struct {
	ID            looseString `json:"id"`
	Name          string      `json:"name"`
	Status        string      `json:"status"`
	BaseEmail     string      `json:"base_email"`
	UserCount     float64     `json:"user_count"`
	UptimeSeconds float64     `json:"uptime_seconds"`
	EmailsSent    float64     `json:"emails_sent"`
}

func (p resourcePayload) toDomain() domain.WorkerResource {
	return domain.WorkerResource{
		ID:            domain.ResourceID(p.ID),
		Name:          p.Name,
		Status:        domain.ResourceStatus(p.Status),
		BaseEmail:     p.BaseEmail,
		UserCount:     int(p.UserCount),
		UptimeSeconds: int64(p.UptimeSeconds),
		EmailsSent:    int(p.EmailsSent),
	}
}

type statsPayload struct {
	ContainerID   looseString `json:"container_id"`
	CPUPercent    float64     `json:"cpu_percent"`
	MemoryUsage   float64     `json:"memory_usage"`
	MemoryLimit   float64     `json:"memory_limit"`
	MemoryPercent float64     `json:"memory_percent"`
	UptimeSeconds float64     `json:"uptime_seconds"`
	EmailsSent    float64     `json:"emails_sent"`
}

func (p statsPayload) toDomain(id domain.ResourceID) domain.StatsSnapshot {
	if p.ContainerID != "" {
		id = domain.ResourceID(p.ContainerID)
	}
	return domain.StatsSnapshot{
		ResourceID:          id,
		CPUPercent:          finite(p.CPUPercent),
		MemoryUsageBytes:    int64(finite(p.MemoryUsage)),
		MemoryLimitBytes:    int64(finite(p.MemoryLimit)),
		ServerMemoryPercent: finite(p.MemoryPercent),
		UptimeSeconds:       int64(finite(p.UptimeSeconds)),
		EmailsSent:          int(finite(p.EmailsSent)),
	}
}

type logsPayload struct {
	Logs string `json:"logs"`
}

type deliveryPayload struct {
	To          string  `json:"to"`
	Subject     string  `json:"subject"`
	Status      string  `json:"status"`
	Timestamp   float64 `json:"timestamp"`
	BodySnippet string  `json:"body_snippet"`
	BodyHTML    *string `json:"body_html"`
}

func (p deliveryPayload) toDomain() domain.DeliveryLogEntry {
	return domain.DeliveryLogEntry{
		To:               p.To,
		Subject:          p.Subject,
		Status:           domain.DeliveryStatus(p.Status),
		TimestampSeconds: finite(p.Timestamp),
		BodySnippet:      p.BodySnippet,
		BodyHTML:         p.BodyHTML,
	}
}

type sendPayload struct {
	ContainerID looseString `json:"container_id"`
	Output      string      `json:"output"`
	SentInBatch *float64    `json:"sent_in_batch"`
	TotalSent   *float64    `json:"total_sent"`
}

func (p sendPayload) toDomain(id domain.ResourceID) domain.SendReport {
	if p.ContainerID != "" {
		id = domain.ResourceID(p.ContainerID)
	}
	return domain.SendReport{
		ResourceID:  id,
		SentInBatch: intPtr(p.SentInBatch),
		TotalSent:   intPtr(p.TotalSent),
		Output:      p.Output,
	}
}

type templatePayload struct {
	ID     looseString     `json:"id"`
	Name   string          `json:"name"`
	HTML   string          `json:"html"`
	Design json.RawMessage `json:"design"`
}

func (p templatePayload) toDomain() domain.Template {
	return domain.Template{
		ID:     domain.TemplateID(p.ID),
		Name:   p.Name,
		HTML:   p.HTML,
		Design: p.Design,
	}
}

type templateDraftPayload struct {
	Name   string          `json:"name"`
	HTML   string          `json:"html"`
	Design json.RawMessage `json:"design"`
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Result string `json:"result"`
}

func intPtr(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(finite(*v))
	return &n
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
