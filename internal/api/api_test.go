package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/calldesk/dialdesk/internal/config"
	"github.com/calldesk/dialdesk/internal/db"
	"github.com/calldesk/dialdesk/internal/workflow"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gdb, err := db.Connect(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "dialdesk_test.db"),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerRoutes(router, gdb, workflow.DefaultOptions)
	return router, gdb
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// createAgent posts an agent and returns its ID.
func createAgent(t *testing.T, router *gin.Engine, name, email string) uint {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/agents", gin.H{"name": name, "email": email})
	if w.Code != http.StatusCreated {
		t.Fatalf("create agent: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID uint `json:"ID"`
	}
	decode(t, w, &resp)
	return resp.ID
}

func createSource(t *testing.T, router *gin.Engine, name string) uint {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/sources", gin.H{"name": name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create source: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID uint `json:"ID"`
	}
	decode(t, w, &resp)
	return resp.ID
}

func TestCreateAgent(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/agents", gin.H{"name": "Dana", "email": "dana@example.com"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "available") {
		t.Errorf("new agent should start available: %s", w.Body.String())
	}
}

func TestCreateAgent_MissingFields(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/agents", gin.H{"name": "Dana"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetAgent_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/agents/404", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetAgent_BadID(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/agents/banana", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestChangeState(t *testing.T) {
	router, _ := newTestRouter(t)
	agID := createAgent(t, router, "Dana", "dana@example.com")

	w := doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/agents/%d/state", agID), gin.H{"state": "break"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "break") {
		t.Errorf("response = %s", w.Body.String())
	}
}

func TestChangeState_UnknownState(t *testing.T) {
	router, _ := newTestRouter(t)
	agID := createAgent(t, router, "Dana", "dana@example.com")

	w := doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/agents/%d/state", agID), gin.H{"state": "lunch"})
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestStateHistory(t *testing.T) {
	router, _ := newTestRouter(t)
	agID := createAgent(t, router, "Dana", "dana@example.com")
	doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/agents/%d/state", agID), gin.H{"state": "break"})

	w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/agents/%d/states", agID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var logs []map[string]interface{}
	decode(t, w, &logs)
	if len(logs) != 2 {
		t.Errorf("history has %d rows, want 2", len(logs))
	}
}

func TestEnqueueAndDepth(t *testing.T) {
	router, _ := newTestRouter(t)
	srcID := createSource(t, router, "campaign-a")

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sources/%d/enqueue", srcID), gin.H{"record_ids": []int64{1, 2, 2, 3}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Enqueued int `json:"enqueued"`
	}
	decode(t, w, &resp)
	if resp.Enqueued != 3 {
		t.Errorf("enqueued = %d, want 3", resp.Enqueued)
	}

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/sources/%d/depth", srcID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("depth status = %d", w.Code)
	}
	var depth struct {
		Depth int64 `json:"depth"`
	}
	decode(t, w, &depth)
	if depth.Depth != 3 {
		t.Errorf("depth = %d, want 3", depth.Depth)
	}
}

func TestEnqueue_UnknownSource(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/sources/77/enqueue", gin.H{"record_ids": []int64{1}})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestReserveNext_EmptyQueueNoContent(t *testing.T) {
	router, _ := newTestRouter(t)
	srcID := createSource(t, router, "campaign-a")
	agID := createAgent(t, router, "Dana", "dana@example.com")

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sources/%d/next", srcID), gin.H{"agent_id": agID})
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 for empty queue", w.Code)
	}
}

func TestPullWrapFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	srcID := createSource(t, router, "campaign-a")
	agID := createAgent(t, router, "Dana", "dana@example.com")
	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sources/%d/enqueue", srcID), gin.H{"record_ids": []int64{42}})

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sources/%d/pull", srcID), gin.H{"agent_id": agID})
	if w.Code != http.StatusOK {
		t.Fatalf("pull status = %d: %s", w.Code, w.Body.String())
	}
	var asg struct {
		Entry struct {
			ID     uint   `json:"ID"`
			Status string `json:"Status"`
		} `json:"entry"`
		Task struct {
			ID uint `json:"ID"`
		} `json:"task"`
	}
	decode(t, w, &asg)
	if asg.Entry.Status != "assigned" {
		t.Errorf("entry status = %q, want assigned", asg.Entry.Status)
	}

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/tasks/%d/complete", asg.Task.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("complete task status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/queue/%d/complete", asg.Entry.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("complete entry status = %d: %s", w.Code, w.Body.String())
	}

	// Agent finished wrap-up of a completed entry: stats reflect it.
	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/sources/%d/stats", srcID), nil)
	var counts struct {
		Completed int64 `json:"completed"`
		Total     int64 `json:"total"`
	}
	decode(t, w, &counts)
	if counts.Completed != 1 || counts.Total != 1 {
		t.Errorf("stats = %+v", counts)
	}
}

func TestCompleteEntry_StrictConflict(t *testing.T) {
	router, _ := newTestRouter(t)
	srcID := createSource(t, router, "campaign-a")
	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sources/%d/enqueue", srcID), gin.H{"record_ids": []int64{1}})

	// The entry is still pending; strict mode rejects the flip.
	w := doJSON(t, router, http.MethodPost, "/api/queue/1/complete", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestSkipEntry(t *testing.T) {
	router, _ := newTestRouter(t)
	srcID := createSource(t, router, "campaign-a")
	agID := createAgent(t, router, "Dana", "dana@example.com")
	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sources/%d/enqueue", srcID), gin.H{"record_ids": []int64{1}})

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sources/%d/next", srcID), gin.H{"agent_id": agID})
	var entry struct {
		ID uint `json:"ID"`
	}
	decode(t, w, &entry)

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/queue/%d/skip", entry.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("skip status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "skipped") {
		t.Errorf("response = %s", w.Body.String())
	}
}

func TestMetricsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	createAgent(t, router, "Dana", "dana@example.com")

	for _, path := range []string{
		"/api/metrics/handle-time",
		"/api/metrics/agent-states",
		"/api/metrics/leaderboard",
		"/api/metrics/queue-stats",
	} {
		w := doJSON(t, router, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d: %s", path, w.Code, w.Body.String())
		}
	}
}

func TestMetricsHandleTime_BadFilter(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/metrics/handle-time?agent_id=banana", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{DB: nil})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
	if !strings.Contains(err.Error(), "db is required") {
		t.Errorf("error = %q", err)
	}
}
