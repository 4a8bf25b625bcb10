// Package controlapitest runs an in-memory worker control API for tests.
package controlapitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
)

const (
	RouteListResources  = "list-resources"
	RouteCreateResource = "create-resource"
	RouteDeleteResource = "delete-resource"
	RouteStats          = "stats"
	RouteLogs           = "logs"
	RouteDeliveryLog    = "delivery-log"
	RouteSendBatch      = "send-batch"
	RouteListTemplates  = "list-templates"
	RouteSaveTemplate   = "save-template"
	RouteDeleteTemplate = "delete-template"
	RouteGenerate       = "generate"
)

type Resource struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	BaseEmail     string `json:"base_email"`
	UserCount     int    `json:"user_count"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	EmailsSent    int    `json:"emails_sent"`
}

type Stats struct {
	ContainerID   string  `json:"container_id"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryUsage   int64   `json:"memory_usage"`
	MemoryLimit   int64   `json:"memory_limit"`
	MemoryPercent float64 `json:"memory_percent"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	EmailsSent    int     `json:"emails_sent"`
}

type Delivery struct {
	To          string  `json:"to"`
	Subject     string  `json:"subject"`
	Status      string  `json:"status"`
	Timestamp   float64 `json:"timestamp"`
	BodySnippet string  `json:"body_snippet"`
	BodyHTML    *string `json:"body_html,omitempty"`
}

type Template struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	HTML   string          `json:"html"`
	Design json.RawMessage `json:"design"`
}

// SendResult is what the send endpoint answers. Nil counts are omitted from
// the payload.
type SendResult struct {
	Output      string `json:"output"`
	SentInBatch *int   `json:"sent_in_batch,omitempty"`
	TotalSent   *int   `json:"total_sent,omitempty"`
}

type failure struct {
	status int
	body   string
}

// Server is a fake control API. All state is guarded by mu and every handler
// snapshots its answer before consulting holds, so a held request replies
// with the state it saw on arrival.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	resources  []Resource
	stats      map[string]Stats
	logs       map[string][]string
	deliveries map[string][]Delivery
	sends      map[string]SendResult
	templates  []Template
	nextID     int
	failures   map[string]failure
	holds      map[string][]*Hold
	allHolds   []*Hold
	hits       map[string]int
	requests   []string
	generate   func(prompt string) string
	prompts    []string
}

func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		stats:      map[string]Stats{},
		logs:       map[string][]string{},
		deliveries: map[string][]Delivery{},
		sends:      map[string]SendResult{},
		failures:   map[string]failure{},
		holds:      map[string][]*Hold{},
		hits:       map[string]int{},
		nextID:     1,
	}

	r := mux.NewRouter()
	r.HandleFunc("/containers", s.listResources).Methods(http.MethodGet)
	r.HandleFunc("/containers/create", s.createResource).Methods(http.MethodPost)
	r.HandleFunc("/containers/delete/{id}", s.deleteResource).Methods(http.MethodDelete)
	r.HandleFunc("/containers/stats/{id}", s.fetchStats).Methods(http.MethodGet)
	r.HandleFunc("/containers/logs/{id}", s.fetchLogs).Methods(http.MethodGet)
	r.HandleFunc("/containers/maildata/{id}", s.fetchDeliveries).Methods(http.MethodGet)
	r.HandleFunc("/containers/send-emails/{id}", s.sendBatch).Methods(http.MethodPost)
	r.HandleFunc("/mails", s.listTemplates).Methods(http.MethodGet)
	r.HandleFunc("/mails", s.saveTemplate).Methods(http.MethodPost)
	r.HandleFunc("/mails/{id}", s.deleteTemplate).Methods(http.MethodDelete)
	r.HandleFunc("/generate", s.generateText).Methods(http.MethodPost)
	r.Use(s.record)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	t.Cleanup(s.releaseAll)
	return s
}

// BaseURL is the server URL with the trailing slash the client expects.
func (s *Server) BaseURL() string {
	return s.URL + "/"
}

func (s *Server) AddResource(r Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = append(s.resources, r)
}

func (s *Server) SetStats(id string, st Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.ContainerID = id
	s.stats[id] = st
}

func (s *Server) SetLogs(id string, lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[id] = lines
}

func (s *Server) SetDeliveries(id string, entries ...Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries[id] = entries
}

func (s *Server) SetSendResult(id string, result SendResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends[id] = result
}

func (s *Server) AddTemplate(name, html string, design json.RawMessage) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTemplateLocked(name, html, design)
}

func (s *Server) Templates() []Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Template(nil), s.templates...)
}

func (s *Server) Resources() []Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Resource(nil), s.resources...)
}

// SetGenerator replaces the generation handler. The default echoes nothing.
func (s *Server) SetGenerator(fn func(prompt string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generate = fn
}

func (s *Server) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Fail makes every later request to route answer status with body. A zero
// status clears the failure.
func (s *Server) Fail(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = failure{status: status, body: body}
}

func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Requests lists "METHOD /path?query" for every request received, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Hold parks the next request to route until Release is called or the client
// gives up.
type Hold struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

func (h *Hold) Arrived() <-chan struct{} {
	return h.arrived
}

func (h *Hold) Release() {
	h.once.Do(func() { close(h.release) })
}

func (s *Server) HoldNext(route string) *Hold {
	h := &Hold{arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.holds[route] = append(s.holds[route], h)
	s.allHolds = append(s.allHolds, h)
	s.mu.Unlock()
	return h
}

func (s *Server) releaseAll() {
	s.mu.Lock()
	holds := append([]*Hold(nil), s.allHolds...)
	s.mu.Unlock()
	for _, h := range holds {
		h.Release()
	}
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		line := r.Method + " " + r.URL.EscapedPath()
		if r.URL.RawQuery != "" {
			line += "?" + r.URL.RawQuery
		}
		s.mu.Lock()
		s.requests = append(s.requests, line)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// begin counts the hit and reports an injected failure, if any.
func (s *Server) begin(route string) (failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[route]++
	f, ok := s.failures[route]
	return f, ok
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request, route string, status int, payload any) {
	if f, failed := s.begin(route); failed {
		s.wait(r, route)
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
		return
	}

	s.wait(r, route)
	s.writeJSON(w, status, payload)
}

func (s *Server) wait(r *http.Request, route string) {
	s.mu.Lock()
	var h *Hold
	if queue := s.holds[route]; len(queue) > 0 {
		h = queue[0]
		s.holds[route] = queue[1:]
	}
	s.mu.Unlock()
	if h == nil {
		return
	}

	close(h.arrived)
	select {
	case <-h.release:
	case <-r.Context().Done():
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	payload := append([]Resource{}, s.resources...)
	s.mu.Unlock()
	s.reply(w, r, RouteListResources, http.StatusOK, payload)
}

func (s *Server) createResource(w http.ResponseWriter, r *http.Request) {
	if f, failed := s.begin(RouteCreateResource); failed {
		s.wait(r, RouteCreateResource)
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
		return
	}

	s.mu.Lock()
	n := len(s.resources) + 1
	created := Resource{
		ID:        "worker-" + strconv.Itoa(n),
		Name:      "postfix_" + strconv.Itoa(n),
		Status:    "running",
		BaseEmail: "user@example.test",
		UserCount: 10,
	}
	s.resources = append(s.resources, created)
	s.mu.Unlock()

	s.wait(r, RouteCreateResource)
	s.writeJSON(w, http.StatusOK, map[string]string{"id": created.ID, "name": created.Name})
}

func (s *Server) deleteResource(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if f, failed := s.begin(RouteDeleteResource); failed {
		s.wait(r, RouteDeleteResource)
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
		return
	}

	s.mu.Lock()
	kept := s.resources[:0]
	found := false
	for _, res := range s.resources {
		if res.ID == id {
			found = true
			continue
		}
		kept = append(kept, res)
	}
	s.resources = kept
	s.mu.Unlock()

	s.wait(r, RouteDeleteResource)
	if !found {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "Container not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}

func (s *Server) fetchStats(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	st, ok := s.stats[id]
	s.mu.Unlock()
	if !ok {
		st = Stats{ContainerID: id}
	}
	s.reply(w, r, RouteStats, http.StatusOK, st)
}

func (s *Server) fetchLogs(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	lines := append([]string(nil), s.logs[id]...)
	s.mu.Unlock()

	if len(lines) > 200 {
		lines = lines[len(lines)-200:]
	}
	if r.URL.Query().Get("filter") == "error" {
		filtered := lines[:0]
		for _, line := range lines {
			lower := strings.ToLower(line)
			if strings.Contains(lower, "error") || strings.Contains(lower, "reject") {
				filtered = append(filtered, line)
			}
		}
		lines = filtered
	}
	s.reply(w, r, RouteLogs, http.StatusOK, map[string]string{"logs": strings.Join(lines, "\n")})
}

func (s *Server) fetchDeliveries(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	payload := append([]Delivery{}, s.deliveries[id]...)
	s.mu.Unlock()
	s.reply(w, r, RouteDeliveryLog, http.StatusOK, payload)
}

func (s *Server) sendBatch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	result, ok := s.sends[id]
	s.mu.Unlock()
	if !ok {
		result = SendResult{Output: "sent"}
	}
	s.reply(w, r, RouteSendBatch, http.StatusOK, struct {
		ContainerID string `json:"container_id"`
		SendResult
	}{ContainerID: id, SendResult: result})
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	payload := append([]Template{}, s.templates...)
	s.mu.Unlock()
	s.reply(w, r, RouteListTemplates, http.StatusOK, payload)
}

func (s *Server) saveTemplate(w http.ResponseWriter, r *http.Request) {
	if f, failed := s.begin(RouteSaveTemplate); failed {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
		return
	}

	var draft Template
	body, err := io.ReadAll(r.Body)
	if err == nil {
		err = sonic.Unmarshal(body, &draft)
	}
	if err != nil {
		http.Error(w, "invalid template payload", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	id := s.addTemplateLocked(draft.Name, draft.HTML, draft.Design)
	s.mu.Unlock()

	s.wait(r, RouteSaveTemplate)
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if f, failed := s.begin(RouteDeleteTemplate); failed {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
		return
	}

	s.mu.Lock()
	kept := s.templates[:0]
	for _, tpl := range s.templates {
		if tpl.ID != id {
			kept = append(kept, tpl)
		}
	}
	s.templates = kept
	s.mu.Unlock()

	s.wait(r, RouteDeleteTemplate)
	s.writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}

func (s *Server) generateText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	body, err := io.ReadAll(r.Body)
	if err == nil {
		err = sonic.Unmarshal(body, &req)
	}
	if err != nil {
		http.Error(w, "invalid prompt payload", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.prompts = append(s.prompts, req.Prompt)
	generate := s.generate
	s.mu.Unlock()

	result := ""
	if generate != nil {
		result = generate(req.Prompt)
	}
	s.reply(w, r, RouteGenerate, http.StatusOK, map[string]string{"result": result})
}

func (s *Server) addTemplateLocked(name, html string, design json.RawMessage) string {
	id := strconv.Itoa(s.nextID)
	s.nextID++
	if len(design) == 0 {
		design = json.RawMessage("{}")
	}
	s.templates = append(s.templates, Template{ID: id, Name: name, HTML: html, Design: design})
	return id
}
