package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/nerrad567/waveform-core/internal/coordinate"
	"github.com/nerrad567/waveform-core/internal/infrastructure/config"
	"github.com/nerrad567/waveform-core/internal/infrastructure/database"
	"github.com/nerrad567/waveform-core/internal/infrastructure/logging"
	"github.com/nerrad567/waveform-core/internal/ingest"
	"github.com/nerrad567/waveform-core/internal/static"
	"github.com/nerrad567/waveform-core/internal/waveform"
	"github.com/nerrad567/waveform-core/migrations"
)

// runnerFunc adapts a function to Runner.
type runnerFunc func(ctx context.Context) (ingest.Result, error)

func (f runnerFunc) Run(ctx context.Context) (ingest.Result, error) { return f(ctx) }

// fakeDB is a Database with a configurable health result.
type fakeDB struct {
	healthErr error
	stats     sql.DBStats
}

func (f *fakeDB) HealthCheck(context.Context) error { return f.healthErr }
func (f *fakeDB) Stats() sql.DBStats                 { return f.stats }

type fakeMQTT bool

func (f fakeMQTT) IsConnected() bool { return bool(f) }

func testDeps(t *testing.T, runner Runner) Deps {
	t.Helper()

	ix, err := static.NewIndex("")
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	return Deps{
		Config: config.ServerConfig{
			Addr:     "127.0.0.1:0",
			Timeouts: config.ServerTimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		Static:   config.StaticConfig{Prefix: "/static", Dir: t.TempDir()},
		Logger:   logging.Discard(),
		Ingest:   runner,
		Index:    ix,
		DB:       &fakeDB{stats: sql.DBStats{MaxOpenConnections: 1}},
		Version:  "test",
		Registry: prometheus.NewRegistry(),
	}
}

func testServer(t *testing.T, runner Runner) *Server {
	t.Helper()

	srv, err := New(testDeps(t, runner))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func serve(srv *Server, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) Error {
	t.Helper()
	var body Error
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body
}

func TestIngest_Success(t *testing.T) {
	srv := testServer(t, runnerFunc(func(context.Context) (ingest.Result, error) {
		return ingest.Result{RunID: "r1", Pairs: 10}, nil
	}))

	w := serve(srv, http.MethodGet, "/")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("body is not the index document")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestIngest_ErrorTable(t *testing.T) {
	poolCause := fmt.Errorf("%w after 5s", database.ErrPoolTimeout)

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:       "not found",
			err:        &coordinate.Error{Kind: coordinate.KindNotFound, Op: "coordinate.insert"},
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
		{
			name:        "pool exposes detail",
			err:         fmt.Errorf("point 0: %w", coordinate.PoolError("ingest.acquire", poolCause)),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    ErrCodeInternal,
			wantMessage: poolCause.Error(),
		},
		{
			name:       "query is opaque",
			err:        &coordinate.Error{Kind: coordinate.KindQuery, Op: "coordinate.insert", Err: errors.New("CHECK constraint failed: secret_table")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternal,
		},
		{
			name:       "mapping is opaque",
			err:        &coordinate.Error{Kind: coordinate.KindMapping, Op: "coordinate.insert", Err: errors.New("column value has type string")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternal,
		},
		{
			name:       "foreign error is opaque",
			err:        errors.New("something else"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, runnerFunc(func(context.Context) (ingest.Result, error) {
				return ingest.Result{}, tt.err
			}))

			w := serve(srv, http.MethodGet, "/")

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := decodeError(t, w)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMessage)
			}
		})
	}
}

func TestErrorTable_CoversEveryKind(t *testing.T) {
	kinds := []coordinate.Kind{
		coordinate.KindUnknown,
		coordinate.KindNotFound,
		coordinate.KindPool,
		coordinate.KindQuery,
		coordinate.KindMapping,
	}
	for _, k := range kinds {
		if _, ok := kindResponses[k]; !ok {
			t.Errorf("kindResponses has no entry for %v", k)
		}
	}
	for k, resp := range kindResponses {
		if resp.detail && k != coordinate.KindPool {
			t.Errorf("kind %v exposes detail; only pool failures may", k)
		}
	}
}

func TestIngest_PanicIsOpaque500(t *testing.T) {
	srv := testServer(t, runnerFunc(func(context.Context) (ingest.Result, error) {
		panic("boom")
	}))

	w := serve(srv, http.MethodGet, "/")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if body := decodeError(t, w); body.Message != "" {
		t.Errorf("message = %q, want empty", body.Message)
	}
}

func TestIngest_RateLimited(t *testing.T) {
	var runs int
	deps := testDeps(t, runnerFunc(func(context.Context) (ingest.Result, error) {
		runs++
		return ingest.Result{}, nil
	}))
	deps.Config.RateLimit = config.RateLimitConfig{RPS: 0.001, Burst: 2}
	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if w := serve(srv, http.MethodGet, "/"); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
	}

	w := serve(srv, http.MethodGet, "/")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if body := decodeError(t, w); body.Code != ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", body.Code, ErrCodeRateLimited)
	}
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}

	if w := serve(srv, http.MethodGet, "/api/v1/health"); w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200 while ingest is throttled", w.Code)
	}
}

func TestIngest_MissingIndexFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte("ok"), 0600); err != nil {
		t.Fatalf("writing index: %v", err)
	}
	ix, err := static.NewIndex(path)
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	deps := testDeps(t, runnerFunc(func(context.Context) (ingest.Result, error) { return ingest.Result{}, nil }))
	deps.Index = ix
	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if w := serve(srv, http.MethodGet, "/"); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestStaticRoutes(t *testing.T) {
	deps := testDeps(t, runnerFunc(func(context.Context) (ingest.Result, error) { return ingest.Result{}, nil }))
	if err := os.WriteFile(filepath.Join(deps.Static.Dir, "notes.txt"), []byte("hello"), 0600); err != nil {
		t.Fatalf("writing static file: %v", err)
	}
	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if w := serve(srv, http.MethodGet, "/static/notes.txt"); w.Code != http.StatusOK || w.Body.String() != "hello" {
		t.Errorf("GET /static/notes.txt = %d %q", w.Code, w.Body.String())
	}
	if w := serve(srv, http.MethodGet, "/static/"); !strings.Contains(w.Body.String(), "notes.txt") {
		t.Errorf("directory listing %q does not mention notes.txt", w.Body.String())
	}
	if w := serve(srv, http.MethodGet, "/static"); w.Code != http.StatusMovedPermanently {
		t.Errorf("GET /static status = %d, want 301", w.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := testServer(t, runnerFunc(func(context.Context) (ingest.Result, error) { return ingest.Result{}, nil }))
		w := serve(srv, http.MethodGet, "/api/v1/health")
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("database down", func(t *testing.T) {
		deps := testDeps(t, runnerFunc(func(context.Context) (ingest.Result, error) { return ingest.Result{}, nil }))
		deps.DB = &fakeDB{healthErr: errors.New("connection refused")}
		srv, err := New(deps)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		w := serve(srv, http.MethodGet, "/api/v1/health")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
		if strings.Contains(w.Body.String(), "refused") {
			t.Error("health body leaks the database error")
		}
	})
}

func TestSystemMetrics(t *testing.T) {
	deps := testDeps(t, runnerFunc(func(context.Context) (ingest.Result, error) { return ingest.Result{}, nil }))
	deps.DB = &fakeDB{stats: sql.DBStats{MaxOpenConnections: 4, InUse: 2, WaitCount: 7}}
	deps.MQTT = fakeMQTT(true)
	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	w := serve(srv, http.MethodGet, "/api/v1/metrics")

	var m SystemMetrics
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("decoding metrics: %v", err)
	}
	if m.Database.MaxOpenConnections != 4 || m.Database.InUse != 2 || m.Database.WaitCount != 7 {
		t.Errorf("Database = %+v", m.Database)
	}
	if m.MQTT == nil || !m.MQTT.Connected {
		t.Errorf("MQTT = %+v, want connected", m.MQTT)
	}
	if m.Version != "test" {
		t.Errorf("Version = %q, want test", m.Version)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	srv := testServer(t, runnerFunc(func(context.Context) (ingest.Result, error) {
		return ingest.Result{}, &coordinate.Error{Kind: coordinate.KindNotFound}
	}))
	router := srv.buildRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", w.Code)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(w.Body)
	if err != nil {
		t.Fatalf("parsing exposition: %v", err)
	}

	mf, ok := families["waveform_http_requests_total"]
	if !ok {
		t.Fatal("waveform_http_requests_total missing")
	}
	if got := counterFor(mf, map[string]string{"route": "/", "status": "404"}); got != 1 {
		t.Errorf("requests_total{route=/,status=404} = %v, want 1", got)
	}
}

func counterFor(mf *dto.MetricFamily, labels map[string]string) float64 {
	var total float64
	for _, m := range mf.GetMetric() {
		match := true
		for _, lp := range m.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
				match = false
			}
		}
		if match {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestNew_RequiresDeps(t *testing.T) {
	base := testDeps(t, runnerFunc(func(context.Context) (ingest.Result, error) { return ingest.Result{}, nil }))

	tests := []struct {
		name   string
		modify func(*Deps)
	}{
		{"missing logger", func(d *Deps) { d.Logger = nil }},
		{"missing runner", func(d *Deps) { d.Ingest = nil }},
		{"missing index", func(d *Deps) { d.Index = nil }},
		{"missing database", func(d *Deps) { d.DB = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := base
			tt.modify(&deps)
			if _, err := New(deps); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}

// TestServer_EndToEnd wires a real orchestrator and SQLite pool behind a
// listening server.
func TestServer_EndToEnd(t *testing.T) {
	db, err := database.Open(database.Config{
		Path:           filepath.Join(t.TempDir(), "waveform.db"),
		BusyTimeout:    5,
		AcquireTimeout: time.Second,
		Migrations:     migrations.FS(),
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	orch, err := ingest.New(ingest.Config{
		Interval: 10 * time.Millisecond,
		Params:   waveform.Params{Amplitude: 2, Frequency: 0.1, Count: 10},
	}, ingest.Deps{
		Pool:     db,
		Inserter: coordinate.NewGateway(db.Dialect()),
		Logger:   logging.Discard(),
	})
	if err != nil {
		t.Fatalf("ingest.New() error = %v", err)
	}

	deps := testDeps(t, orch)
	deps.DB = db
	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Close() //nolint:errcheck // Test cleanup

	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	resp.Body.Close() //nolint:errcheck // Body not needed
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d, want 200", resp.StatusCode)
	}

	var n int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM coordinates").Scan(&n); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if n != 20 {
		t.Errorf("rows = %d, want 20", n)
	}
}

func TestServer_CloseCancelsWaitingRequests(t *testing.T) {
	started := make(chan struct{})
	srv := testServer(t, runnerFunc(func(ctx context.Context) (ingest.Result, error) {
		close(started)
		<-ctx.Done()
		return ingest.Result{}, ctx.Err()
	}))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	go func() {
		resp, err := http.Get("http://" + srv.Addr() + "/")
		if err == nil {
			resp.Body.Close() //nolint:errcheck // Body not needed
		}
	}()
	<-started

	done := make(chan error, 1)
	go func() { done <- srv.Close() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Close() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close() did not return; waiting request was not cancelled")
	}
}
