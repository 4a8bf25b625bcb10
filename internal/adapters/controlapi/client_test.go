package controlapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bnema/mailctl/internal/adapters/controlapi/controlapitest"
	"github.com/bnema/mailctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *controlapitest.Server) {
	t.Helper()
	srv := controlapitest.NewServer(t)
	return New(srv.BaseURL(), 5*time.Second, nil), srv
}

func TestListResourcesDecodesPayload(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(t)
	srv.AddResource(controlapitest.Resource{
		ID:            "abc123",
		Name:          "postfix_1",
		Status:        "running",
		BaseEmail:     "ops@example.test",
		UserCount:     10,
		UptimeSeconds: 125,
		EmailsSent:    42,
	})

	resources, err := client.ListResources(context.Background())

	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, domain.WorkerResource{
		ID:            "abc123",
		Name:          "postfix_1",
		Status:        domain.ResourceStatusRunning,
		BaseEmail:     "ops@example.test",
		UserCount:     10,
		UptimeSeconds: 125,
		EmailsSent:    42,
	}, resources[0])
}

func TestFetchLogsOmitsQueryWhenUnfiltered(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(t)
	srv.SetLogs("w1", "boot ok", "smtp error: relay denied", "message REJECTED")

	all, err := client.FetchLogs(context.Background(), "w1", domain.LogFilterAll)
	require.NoError(t, err)
	assert.Equal(t, "boot ok\nsmtp error: relay denied\nmessage REJECTED", all.Text)
	assert.Equal(t, domain.LogFilterAll, all.Filter)

	errs, err := client.FetchLogs(context.Background(), "w1", domain.LogFilterError)
	require.NoError(t, err)
	assert.Equal(t, "smtp error: relay denied\nmessage REJECTED", errs.Text)
	assert.Equal(t, domain.LogFilterError, errs.Filter)

	assert.Equal(t, []string{
		"GET /containers/logs/w1",
		"GET /containers/logs/w1?filter=error",
	}, srv.Requests())
}

func TestFetchStatsKeepsServerPercentSeparate(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(t)
	srv.SetStats("w1", controlapitest.Stats{
		CPUPercent:    3.5,
		MemoryUsage:   104857600,
		MemoryLimit:   536870912,
		MemoryPercent: 99,
		UptimeSeconds: 60,
		EmailsSent:    7,
	})

	stats, err := client.FetchStats(context.Background(), "w1")

	require.NoError(t, err)
	assert.Equal(t, domain.ResourceID("w1"), stats.ResourceID)
	assert.InDelta(t, 19.53, stats.MemoryPercent(), 0.01)
	assert.InDelta(t, 99.0, stats.ServerMemoryPercent, 0.001)
	assert.Equal(t, 7, stats.EmailsSent)
}

func TestFetchDeliveryLogKeepsOptionalHTML(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(t)
	html := "<p>Welcome</p>"
	srv.SetDeliveries("w1",
		controlapitest.Delivery{To: "a@example.test", Subject: "Hi", Status: "success", Timestamp: 1760000000.25, BodySnippet: "Welcome", BodyHTML: &html},
		controlapitest.Delivery{To: "b@example.test", Subject: "Hi", Status: "bounced", Timestamp: 1760000001, BodySnippet: "Welcome"},
	)

	entries, err := client.FetchDeliveryLog(context.Background(), "w1")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].BodyHTML)
	assert.Equal(t, html, *entries[0].BodyHTML)
	assert.InDelta(t, 1760000000.25, entries[0].TimestampSeconds, 1e-6)
	assert.Nil(t, entries[1].BodyHTML)
	assert.Equal(t, domain.DeliveryStatusKindNeutral, entries[1].Status.Kind())
}

func TestSendBatchOptionalCounts(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(t)
	batch := 5
	srv.SetSendResult("w1", controlapitest.SendResult{Output: "done", SentInBatch: &batch})

	report, err := client.SendBatch(context.Background(), "w1")

	require.NoError(t, err)
	assert.Equal(t, domain.ResourceID("w1"), report.ResourceID)
	assert.Equal(t, "5", report.SentInBatchLabel())
	assert.Equal(t, "N/A", report.TotalSentLabel())
	assert.Equal(t, "done", report.Output)
}

func TestNonSuccessStatusBecomesHTTPError(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(t)
	srv.Fail(controlapitest.RouteDeleteResource, http.StatusInternalServerError, "docker daemon unavailable\n")

	err := client.DeleteResource(context.Background(), "w1")

	var httpErr *domain.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, "docker daemon unavailable", err.Error())
}

func TestUndecodablePayloadBecomesDecodeError(t *testing.T) {
	t.Parallel()

	srv := http.NewServeMux()
	srv.HandleFunc("/containers", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	})
	ts := newRawServer(t, srv)

	_, err := New(ts, time.Second, nil).ListResources(context.Background())

	var decodeErr *domain.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "list resources", decodeErr.Op)
}

func TestUnreachableServerBecomesNetworkError(t *testing.T) {
	t.Parallel()

	_, err := New("http://127.0.0.1:1/", time.Second, nil).ListResources(context.Background())

	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "list resources", netErr.Op)
}

func TestCallerDeadlineWinsOverDefaultTimeout(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(t)
	client.RequestTimeout = time.Minute
	hold := srv.HoldNext(controlapitest.RouteListResources)
	defer hold.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ListResources(ctx)

	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestTemplatesRoundTripThroughAPI(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(t)
	design := json.RawMessage(`{"body":{"rows":[]}}`)

	require.NoError(t, client.SaveTemplate(context.Background(), domain.TemplateDraft{Name: "Welcome", HTML: "<p>hi</p>", Design: design}))

	templates, err := client.ListTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "Welcome", templates[0].Name)
	assert.JSONEq(t, string(design), string(templates[0].Design))

	require.NoError(t, client.DeleteTemplate(context.Background(), templates[0].ID))
	assert.Empty(t, srv.Templates())
}

func TestGenerateReturnsResultVerbatim(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(t)
	srv.SetGenerator(func(prompt string) string { return "rewritten: " + prompt })

	got, err := client.Generate(context.Background(), "Fix grammar")

	require.NoError(t, err)
	assert.Equal(t, "rewritten: Fix grammar", got)
	assert.Equal(t, []string{"Fix grammar"}, srv.Prompts())
}

func TestBuildAPIURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "root base", base: "http://host:5000/", path: "containers", want: "http://host:5000/containers"},
		{name: "base without slash", base: "http://host:5000", path: "mails", want: "http://host:5000/mails"},
		{name: "base with prefix", base: "https://host/api", path: "containers/stats/x", want: "https://host/api/containers/stats/x"},
		{name: "escaped segment", base: "http://host/", path: "containers/stats/" + segment("a b"), want: "http://host/containers/stats/a%20b"},
		{name: "empty base", base: "", path: "containers", wantErr: true},
		{name: "bad scheme", base: "ftp://host/", path: "containers", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildAPIURL(tt.base, tt.path, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
