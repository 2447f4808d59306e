package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/authz"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/handlers"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/metrics"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/middleware"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/realtime"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/repositories"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/services"
)

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	reg := prometheus.NewRegistry()
	m := metrics.NewWorkflow(reg)
	hub := realtime.NewTaskHub(4, m)
	engine := services.NewWorkflowService(repositories.NewMemoryTaskRepository(),
		services.WithLogger(log), services.WithMetrics(m), services.WithEventPublisher(hub))

	secret := []byte("routes-secret")
	r := SetupRoutes(gin.New(),
		AuthConfig{Secret: secret, Leeway: time.Minute},
		handlers.NewTaskHandler(engine, services.DefaultRetryConfig(), m, log),
		handlers.NewEventsHandler(hub, log),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)

	get := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := get("/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz = %d", w.Code)
	}
	if w := get("/tasks", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list = %d", w.Code)
	}

	token, err := middleware.IssueToken(secret, 1, authz.RoleMember, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if w := get("/tasks", token); w.Code != http.StatusOK {
		t.Fatalf("list = %d %s", w.Code, w.Body.String())
	}

	w := get("/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "taskhub_event_subscribers") {
		t.Fatalf("metrics not exposed: %d", w.Code)
	}

	if w := get("/swagger/index.html", ""); w.Code != http.StatusOK {
		t.Fatalf("swagger ui = %d", w.Code)
	}
	w = get("/swagger/doc.json", "")
	if w.Code != http.StatusOK {
		t.Fatalf("swagger doc = %d", w.Code)
	}
	var doc struct {
		Info  struct{ Title string }    `json:"info"`
		Paths map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("swagger doc is not json: %v", err)
	}
	if doc.Info.Title != "TaskHub API" {
		t.Fatalf("swagger title = %q", doc.Info.Title)
	}

	routes := map[string]bool{}
	for _, ri := range r.Routes() {
		routes[ri.Method+" "+ri.Path] = true
		if !strings.HasPrefix(ri.Path, "/tasks") {
			continue
		}
		path := strings.ReplaceAll(ri.Path, ":id", "{id}")
		if _, ok := doc.Paths[path][strings.ToLower(ri.Method)]; !ok {
			t.Errorf("%s %s missing from swagger doc", ri.Method, path)
		}
	}
	for _, want := range []string{
		"POST /tasks", "GET /tasks/:id", "PATCH /tasks/:id", "GET /tasks/events",
		"POST /tasks/:id/accept", "POST /tasks/:id/reject",
		"POST /tasks/:id/extension", "POST /tasks/:id/extension/approve", "POST /tasks/:id/extension/reject",
		"POST /tasks/:id/edit-request", "POST /tasks/:id/edit-request/approve", "POST /tasks/:id/edit-request/reject",
		"POST /tasks/:id/status", "POST /tasks/:id/comments",
	} {
		if !routes[want] {
			t.Errorf("route %q not registered", want)
		}
	}
}
