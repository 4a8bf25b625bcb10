package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bnema/mailctl/internal/adapters/controlapi/controlapitest"
	"github.com/bnema/mailctl/internal/application"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkersListRendersTable(t *testing.T) {
	srv := newControlAPI(t)

	stdout, _, err := executeCLI(t, "workers", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "workers: 2")
	assert.Contains(t, stdout, "postfix_1")
	assert.Contains(t, stdout, "ops@example.test")
	assert.Contains(t, stdout, "Uptime (min)")
	assert.Equal(t, 1, srv.Hits(controlapitest.RouteListResources))
}

func TestWorkersListJSONOutput(t *testing.T) {
	newControlAPI(t)

	stdout, stderr, err := executeCLI(t, "workers", "list", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"ID\": \"w1\"")
	assert.Contains(t, stdout, "\"BaseEmail\": \"ops@example.test\"")
	assert.Empty(t, stderr)
}

func TestWorkersListShowsFetchingSpinnerMessage(t *testing.T) {
	srv := newControlAPI(t)
	hold := srv.HoldNext(controlapitest.RouteListResources)
	go func() {
		<-hold.Arrived()
		time.Sleep(200 * time.Millisecond)
		hold.Release()
	}()

	_, stderr, err := executeCLI(t, "workers", "list")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Fetching workers")
	assert.Contains(t, stderr, "✓ Fetching workers (")
}

func TestWorkersListShowsServerErrorText(t *testing.T) {
	srv := newControlAPI(t)
	srv.Fail(controlapitest.RouteListResources, http.StatusInternalServerError, "docker daemon unavailable")

	_, _, err := executeCLI(t, "workers", "list")
	require.Error(t, err)
	assert.Equal(t, "docker daemon unavailable", err.Error())
}

func TestWorkersCreateThenListShowsNewWorker(t *testing.T) {
	srv := newControlAPI(t)

	stdout, _, err := executeCLI(t, "workers", "create")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Worker created.")
	assert.Contains(t, stdout, "postfix_3")
	assert.Len(t, srv.Resources(), 3)
}

func TestWorkersDeleteUnknownReportsServerText(t *testing.T) {
	newControlAPI(t)

	_, _, err := executeCLI(t, "workers", "delete", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Container not found")
}

func TestWorkersDeleteRemovesWorker(t *testing.T) {
	srv := newControlAPI(t)

	stdout, _, err := executeCLI(t, "workers", "delete", "w1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Worker w1 deleted.")
	assert.NotContains(t, stdout, "postfix_1")
	assert.Len(t, srv.Resources(), 1)
}

func TestWorkersInspectUsesClientSideMemoryPercent(t *testing.T) {
	srv := newControlAPI(t)

	stdout, _, err := executeCLI(t, "workers", "inspect", "w1", "--filter", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Container Stats for w1")
	assert.Contains(t, stdout, "(19.53%)")
	assert.Contains(t, stdout, "Logs (filter: error)")
	assert.Contains(t, stdout, "smtp error: relay denied")
	assert.NotContains(t, stdout, "boot ok")
	assert.Contains(t, stdout, "alice@example.test")
	assert.Contains(t, srv.Requests(), "GET /containers/logs/w1?filter=error")
}

func TestWorkersInspectJSONOutput(t *testing.T) {
	newControlAPI(t)

	stdout, _, err := executeCLI(t, "workers", "inspect", "w1", "--json")
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(stdout)))

	var out struct {
		ResourceID    string
		Filter        string
		MemoryPercent float64
		Logs          string
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "w1", out.ResourceID)
	assert.Equal(t, "all", out.Filter)
	assert.InDelta(t, 19.53, out.MemoryPercent, 0.01)
	assert.Contains(t, out.Logs, "boot ok")
}

func TestWorkersLogsRejectsUnknownFilter(t *testing.T) {
	newControlAPI(t)

	_, _, err := executeCLI(t, "workers", "logs", "w1", "--filter", "warnings")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported log filter")
}

func TestWorkersLogsPrintsPlaceholderWhenEmpty(t *testing.T) {
	newControlAPI(t)

	stdout, _, err := executeCLI(t, "workers", "logs", "w2")
	require.NoError(t, err)
	assert.Equal(t, "No logs available.\n", stdout)
}

func TestWorkersSendPrintsReportWithMissingCounts(t *testing.T) {
	srv := newControlAPI(t)
	total := 120
	srv.SetSendResult("w1", controlapitest.SendResult{Output: "batch done", TotalSent: &total})

	stdout, _, err := executeCLI(t, "workers", "send", "w1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Emails Sent: N/A")
	assert.Contains(t, stdout, "Total Sent: 120")
	assert.Contains(t, stdout, "batch done")
}

func TestTemplatesSaveDuplicateLoadDelete(t *testing.T) {
	srv := newControlAPI(t)
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "export.html")
	designPath := filepath.Join(dir, "design.json")
	require.NoError(t, os.WriteFile(htmlPath, []byte("<p>Hello subscribers</p>"), 0o600))
	require.NoError(t, os.WriteFile(designPath, []byte(`{"body":{"rows":[]}}`), 0o600))

	stdout, _, err := executeCLI(t, "templates", "save", "--name", "Welcome", "--html", htmlPath, "--design", designPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Template \"Welcome\" saved.")
	require.Len(t, srv.Templates(), 1)
	id := srv.Templates()[0].ID

	stdout, _, err = executeCLI(t, "templates", "duplicate", id)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Copy of Welcome")

	out := filepath.Join(dir, "loaded", "design.json")
	stdout, _, err = executeCLI(t, "templates", "load", id, "--design-out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Template \"Welcome\" loaded")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"body":{"rows":[]}}`, string(data))

	stdout, _, err = executeCLI(t, "templates", "delete", id)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "  Welcome")
	assert.Contains(t, stdout, "Copy of Welcome")
}

func TestTemplatesLoadUnknownID(t *testing.T) {
	newControlAPI(t)

	_, _, err := executeCLI(t, "templates", "load", "404", "--design-out", filepath.Join(t.TempDir(), "d.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Template not found")
}

func TestTemplatesListEmpty(t *testing.T) {
	newControlAPI(t)

	stdout, _, err := executeCLI(t, "templates", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No saved templates yet.")
}

func TestAIPresetsListsAllPresets(t *testing.T) {
	stdout, _, err := executeCLI(t, "ai", "presets")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Fix grammar")
	assert.Contains(t, stdout, "14. Translate to English")
}

func TestAIExtractStripsMarkup(t *testing.T) {
	newControlAPI(t)
	htmlPath := filepath.Join(t.TempDir(), "export.html")
	require.NoError(t, os.WriteFile(htmlPath, []byte(`<html><head><style>.x{color:red}</style></head><body><h1>Big news</h1><p>We launched.</p><script>track()</script></body></html>`), 0o600))

	stdout, _, err := executeCLI(t, "ai", "extract", "--html", htmlPath)
	require.NoError(t, err)
	assert.Equal(t, "Big news\n\nWe launched.\n", stdout)
}

func TestAIGenerateWithPreset(t *testing.T) {
	srv := newControlAPI(t)
	srv.SetGenerator(func(string) string { return "- point one" })

	stdout, _, err := executeCLI(t, "ai", "generate", "--preset", "summarize", "--prompt", "Quarterly update for customers", "--json")
	require.NoError(t, err)

	prompts := srv.Prompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, "Summarize the following email in 3 concise bullet points:\n\nQuarterly update for customers", prompts[0])
	assert.Contains(t, stdout, "\"Preset\": \"Summarize\"")
	assert.Contains(t, stdout, "- point one")
}

func TestAIGenerateEmptyResultPrintsNotice(t *testing.T) {
	newControlAPI(t)

	stdout, _, err := executeCLI(t, "ai", "generate", "--prompt", "Hello there")
	require.NoError(t, err)
	assert.Contains(t, stdout, application.PromptSentNotice)
}

func TestAIGenerateRequiresContent(t *testing.T) {
	newControlAPI(t)

	_, _, err := executeCLI(t, "ai", "generate", "--preset", "Summarize")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--html or --prompt")
}

func TestHealthCheckDownShowsHint(t *testing.T) {
	newControlAPI(t)
	newStatusServer(t, `{"colab_alive":false}`)

	stdout, _, err := executeCLI(t, "health", "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "STOPPED")
	assert.Contains(t, stdout, "colab.research.google.com")
}

func TestHealthCheckUnreadablePayloadIsDown(t *testing.T) {
	newControlAPI(t)
	newStatusServer(t, `not json`)

	stdout, _, err := executeCLI(t, "health", "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "STOPPED")
}

func TestHealthWatchStopsAfterCount(t *testing.T) {
	newControlAPI(t)
	newStatusServer(t, `{"colab_alive":true}`)

	stdout, _, err := executeCLI(t, "health", "watch", "--count", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "RUNNING")
	assert.Equal(t, 1, strings.Count(stdout, "Colab:"))
}

func TestConfigInitWritesDefaultsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailctl.toml")

	stdout, _, err := executeCLI(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "base_url")
	assert.Contains(t, string(data), "notebook_url")

	_, _, err = executeCLI(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = executeCLI(t, "config", "init", "--config", path, "--force")
	require.NoError(t, err)
}

func TestExplicitConfigFileIsUsed(t *testing.T) {
	srv := newControlAPI(t)
	t.Setenv("MAILCTL_API_BASE_URL", "")
	path := filepath.Join(t.TempDir(), "mailctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("[api]\nbase_url = %q\n", srv.BaseURL())), 0o600))

	stdout, _, err := executeCLI(t, "--config", path, "workers", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "postfix_1")
}

func TestInvalidConfigFailsBeforeAnyRequest(t *testing.T) {
	newControlAPI(t)
	t.Setenv("MAILCTL_API_BASE_URL", "ftp://example.test/")

	_, _, err := executeCLI(t, "workers", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestVersionPrintsBuildVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

func TestAccountCommandIsGone(t *testing.T) {
	_, _, err := executeCLI(t, "account", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command \"account\"")
}

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// newControlAPI starts a seeded fake control API and points the CLI at it.
func newControlAPI(t *testing.T) *controlapitest.Server {
	t.Helper()

	srv := controlapitest.NewServer(t)
	srv.AddResource(controlapitest.Resource{ID: "w1", Name: "postfix_1", Status: "running", BaseEmail: "ops@example.test", UserCount: 10, UptimeSeconds: 3600, EmailsSent: 42})
	srv.AddResource(controlapitest.Resource{ID: "w2", Name: "postfix_2", Status: "stopped", UserCount: 3})
	srv.SetStats("w1", controlapitest.Stats{ContainerID: "w1", CPUPercent: 1.25, MemoryUsage: 104857600, MemoryLimit: 536870912, MemoryPercent: 99, UptimeSeconds: 3600, EmailsSent: 42})
	srv.SetLogs("w1", "boot ok", "smtp error: relay denied")
	srv.SetDeliveries("w1", controlapitest.Delivery{To: "alice@example.test", Subject: "Welcome", Status: "success", Timestamp: 1760000000.5, BodySnippet: "Hi Alice"})

	t.Setenv("MAILCTL_API_BASE_URL", srv.BaseURL())
	t.Setenv("MAILCTL_HEALTH_URL", "http://127.0.0.1:1/status")
	return srv
}

func newStatusServer(t *testing.T, body string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	t.Setenv("MAILCTL_HEALTH_URL", server.URL+"/status")
}
