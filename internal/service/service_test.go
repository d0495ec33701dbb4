package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/checkin/internal/auth"
	"github.com/mmynk/checkin/internal/metrics"
	"github.com/mmynk/checkin/internal/query"
	"github.com/mmynk/checkin/internal/storage/memory"
)

const testSecret = "service-test-secret-0123456789abcdef"

// testEnv is a running API backed by a demo-seeded memory store.
type testEnv struct {
	server  *httptest.Server
	store   *memory.Store
	tokens  *auth.JWTManager
	metrics *metrics.Metrics
	clock   *fakeClock
}

// fakeClock is shared between the test goroutine and request handlers.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// setupTestServer starts the full router with demo data and a fixed clock.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	if err := store.SeedDemo(context.Background(), bcrypt.MinCost); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}

	env := &testEnv{
		store: store,
		clock: &fakeClock{t: time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC)},
	}
	now := env.clock.Now
	env.tokens = auth.NewJWTManager(testSecret, auth.DefaultTokenDuration).WithClock(now)
	env.metrics = metrics.New(func() float64 { return float64(store.Len()) })

	env.server = httptest.NewServer(NewRouter(Deps{
		Visitors:       store,
		Authenticator:  auth.NewPasswordAuthenticator(store, bcrypt.MinCost),
		Tokens:         env.tokens,
		Metrics:        env.metrics,
		AllowedOrigins: []string{"http://localhost:3000"},
		Now:            now,
	}))
	t.Cleanup(env.server.Close)

	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, r)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    memory.DemoAdminEmail,
		"password": memory.DemoAdminPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	var out loginResponse
	decode(t, resp, &out)
	return out.Token
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, http.MethodGet, "/", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body healthResponse
	decode(t, resp, &body)
	if body.Version != APIVersion {
		t.Errorf("version: expected %s, got %s", APIVersion, body.Version)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestCreateVisitor(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, http.MethodPost, "/api/visitors", "", map[string]any{
		"name":         "Alice Walker",
		"email":        "alice@example.com",
		"phone":        "+15550001111",
		"company":      nil,
		"purpose":      "Interview",
		"checkin_time": "2024-02-03T11:00:00",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var raw map[string]any
	decode(t, resp, &raw)

	if raw["id"] != float64(4) {
		t.Errorf("id: expected 4, got %v", raw["id"])
	}
	if raw["checkin_time"] != "2024-02-03T11:00:00" {
		t.Errorf("checkin_time: got %v", raw["checkin_time"])
	}
	if v, ok := raw["company"]; !ok || v != nil {
		t.Errorf("company: expected explicit null, got %v (present=%v)", v, ok)
	}
	if env.store.Len() != 4 {
		t.Errorf("store size: expected 4, got %d", env.store.Len())
	}
	if got := testutil.ToFloat64(env.metrics.VisitorsCreated); got != 1 {
		t.Errorf("visitors_created_total: expected 1, got %v", got)
	}
}

func TestCreateVisitor_SequentialIDs(t *testing.T) {
	env := setupTestServer(t)

	var last float64 = 3
	for i := 0; i < 5; i++ {
		resp := env.do(t, http.MethodPost, "/api/visitors", "", map[string]any{
			"name":         fmt.Sprintf("Visitor %d", i),
			"email":        "v@example.com",
			"phone":        "1",
			"purpose":      "Delivery",
			"checkin_time": "2024-02-03T08:00:00Z",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		var raw map[string]any
		decode(t, resp, &raw)
		id := raw["id"].(float64)
		if id != last+1 {
			t.Errorf("id: expected %v, got %v", last+1, id)
		}
		last = id
		if raw["checkin_time"] != "2024-02-03T08:00:00+00:00" {
			t.Errorf("checkin_time: got %v", raw["checkin_time"])
		}
	}
}

func TestCreateVisitor_Validation(t *testing.T) {
	env := setupTestServer(t)

	valid := func() map[string]any {
		return map[string]any{
			"name":         "Alice",
			"email":        "alice@example.com",
			"phone":        "+1555",
			"purpose":      "Interview",
			"checkin_time": "2024-02-03T11:00:00",
		}
	}

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantField  string
	}{
		{name: "bad email", body: with(valid(), "email", "not-an-email"), wantStatus: http.StatusUnprocessableEntity, wantField: "email"},
		{name: "missing name", body: without(valid(), "name"), wantStatus: http.StatusUnprocessableEntity, wantField: "name"},
		{name: "blank purpose", body: with(valid(), "purpose", "   "), wantStatus: http.StatusUnprocessableEntity, wantField: "purpose"},
		{name: "bad timestamp", body: with(valid(), "checkin_time", "yesterday"), wantStatus: http.StatusUnprocessableEntity, wantField: "checkin_time"},
		{name: "malformed JSON", body: `{"name":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/visitors", "", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			var body errorResponse
			decode(t, resp, &body)
			if tt.wantField == "" {
				return
			}
			found := false
			for _, fe := range body.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got %+v", tt.wantField, body.Errors)
			}
		})
	}

	if env.store.Len() != 3 {
		t.Errorf("invalid submissions changed the store: %d records", env.store.Len())
	}
}

func with(m map[string]any, k string, v any) map[string]any {
	m[k] = v
	return m
}

func without(m map[string]any, k string) map[string]any {
	delete(m, k)
	return m
}

func TestLogin(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "admin@demo.com",
		"password": "admin123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out loginResponse
	decode(t, resp, &out)
	if out.Token == "" {
		t.Fatal("expected token")
	}
	if out.User.ID != 1 || out.User.Name != "Admin User" || out.User.Email != "admin@demo.com" {
		t.Errorf("unexpected user: %+v", out.User)
	}

	claims, err := env.tokens.Validate(out.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.UserID != 1 {
		t.Errorf("user_id claim: expected 1, got %d", claims.UserID)
	}
}

func TestLogin_Failures(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{name: "wrong password", body: map[string]string{"email": "admin@demo.com", "password": "nope"}, wantStatus: http.StatusUnauthorized},
		{name: "unknown email", body: map[string]string{"email": "ghost@demo.com", "password": "admin123"}, wantStatus: http.StatusUnauthorized},
		{name: "invalid email", body: map[string]string{"email": "admin", "password": "admin123"}, wantStatus: http.StatusUnprocessableEntity},
		{name: "missing password", body: map[string]string{"email": "admin@demo.com"}, wantStatus: http.StatusUnprocessableEntity},
	}

	var details []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/login", "", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var body errorResponse
				decode(t, resp, &body)
				details = append(details, body.Detail)
			}
		})
	}

	if len(details) != 2 || details[0] != details[1] {
		t.Errorf("credential failures should be indistinguishable, got %q", details)
	}
	if got := testutil.ToFloat64(env.metrics.LoginAttempts.WithLabelValues(metrics.LoginFailure)); got != 2 {
		t.Errorf("login failures: expected 2, got %v", got)
	}
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)

	admin, err := env.store.GetAdminByEmail(context.Background(), memory.DemoAdminEmail)
	if err != nil {
		t.Fatalf("GetAdminByEmail failed: %v", err)
	}
	env.clock.Add(-48 * time.Hour)
	oldToken, err := env.tokens.Generate(admin)
	env.clock.Add(48 * time.Hour)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/admin/visitors"},
		{http.MethodGet, "/api/admin/visitors/1"},
		{http.MethodDelete, "/api/admin/visitors/1"},
		{http.MethodGet, "/api/admin/dashboard/stats"},
	}
	tokens := []struct{ name, token string }{
		{"missing", ""},
		{"garbage", "garbage"},
		{"tampered", token[:len(token)-4] + "AAAA"},
		{"expired", oldToken},
	}

	for _, route := range routes {
		for _, tok := range tokens {
			t.Run(route.method+" "+route.path+" "+tok.name, func(t *testing.T) {
				resp := env.do(t, route.method, route.path, tok.token, nil)
				if resp.StatusCode != http.StatusUnauthorized {
					t.Fatalf("expected 401, got %d", resp.StatusCode)
				}
				var body errorResponse
				decode(t, resp, &body)
				if body.Detail != detailUnauthorized {
					t.Errorf("detail: expected %q, got %q", detailUnauthorized, body.Detail)
				}
			})
		}
	}

	if env.store.Len() != 3 {
		t.Errorf("rejected DELETE modified the store: %d records", env.store.Len())
	}
	if got := testutil.ToFloat64(env.metrics.TokenRejections.WithLabelValues("expired")); got != float64(len(routes)) {
		t.Errorf("expired rejections: expected %d, got %v", len(routes), got)
	}
}

func TestListVisitors(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)

	t.Run("defaults", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/admin/visitors", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var res query.Result
		decode(t, resp, &res)
		if res.Total != 3 || res.Page != 1 || res.Limit != 100 || res.Pages != 1 {
			t.Errorf("unexpected envelope: %+v", res)
		}
		if len(res.Data) != 3 || res.Data[0].Name != "Bob Johnson" {
			t.Errorf("expected newest first, got %+v", res.Data)
		}
	})

	t.Run("filters", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/admin/visitors?startDate=2024-02-02&search=o", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var res query.Result
		decode(t, resp, &res)
		if res.Total != 2 {
			t.Fatalf("total: expected 2, got %d", res.Total)
		}
		if res.Data[0].ID != 3 || res.Data[1].ID != 2 {
			t.Errorf("unexpected order: %d, %d", res.Data[0].ID, res.Data[1].ID)
		}
	})

	t.Run("purpose", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/admin/visitors?purpose=Business+Meeting", token, nil)
		var res query.Result
		decode(t, resp, &res)
		if res.Total != 1 || res.Data[0].Name != "John Doe" {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/admin/visitors?page=2&limit=2", token, nil)
		var res query.Result
		decode(t, resp, &res)
		if res.Total != 3 || res.Pages != 2 || len(res.Data) != 1 || res.Data[0].ID != 1 {
			t.Errorf("unexpected page: %+v", res)
		}
	})

	t.Run("page past the end", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/admin/visitors?page=9223372036854775807&limit=2", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var res query.Result
		decode(t, resp, &res)
		if res.Total != 3 || res.Pages != 2 || len(res.Data) != 0 {
			t.Errorf("unexpected page: %+v", res)
		}
	})

	for _, q := range []string{"page=0", "limit=0", "page=-1", "limit=abc"} {
		t.Run("rejects "+q, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, "/api/admin/visitors?"+q, token, nil)
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Errorf("expected 422, got %d", resp.StatusCode)
			}
		})
	}
}

func TestGetAndDeleteVisitor(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)

	resp := env.do(t, http.MethodGet, "/api/admin/visitors/2", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.StatusCode)
	}
	var raw map[string]any
	decode(t, resp, &raw)
	if raw["name"] != "Jane Smith" {
		t.Errorf("name: got %v", raw["name"])
	}

	if resp := env.do(t, http.MethodGet, "/api/admin/visitors/99", token, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("get unknown: expected 404, got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodGet, "/api/admin/visitors/abc", token, nil); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("get non-integer: expected 422, got %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodDelete, "/api/admin/visitors/2", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
	var msg messageResponse
	decode(t, resp, &msg)
	if msg.Message != "Visitor deleted successfully" {
		t.Errorf("message: got %q", msg.Message)
	}

	if resp := env.do(t, http.MethodDelete, "/api/admin/visitors/2", token, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodGet, "/api/admin/visitors/2", token, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted: expected 404, got %d", resp.StatusCode)
	}
	if env.store.Len() != 2 {
		t.Errorf("store size: expected 2, got %d", env.store.Len())
	}
}

func TestDashboardStats(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)

	resp := env.do(t, http.MethodGet, "/api/admin/dashboard/stats", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var raw map[string]int
	decode(t, resp, &raw)
	want := map[string]int{
		"total_visitors":      3,
		"today_visitors":      1,
		"this_week_visitors":  3,
		"this_month_visitors": 3,
	}
	for k, v := range want {
		if raw[k] != v {
			t.Errorf("%s: expected %d, got %d", k, v, raw[k])
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, env.server.URL+"/api/admin/visitors", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin: got %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("allow-credentials: got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestServer(t)
	env.do(t, http.MethodGet, "/", "", nil)

	resp := env.do(t, http.MethodGet, "/metrics", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `checkin_http_requests_total{code="200",method="GET",route="/"}`) {
		t.Errorf("request counter missing from exposition:\n%s", body)
	}
	if !strings.Contains(string(body), "checkin_visitors_stored 3") {
		t.Errorf("visitors gauge missing from exposition")
	}
}

func TestPanicRecovery(t *testing.T) {
	m := metrics.New(func() float64 { return 0 })
	r := chi.NewRouter()
	r.Use(middlewareStack(m, nil)...)
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/boom")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var body errorResponse
	decode(t, resp, &body)
	if body.Detail != detailInternal {
		t.Errorf("expected detail %q, got %q", detailInternal, body.Detail)
	}

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/boom", http.MethodGet, "500")); got != 1 {
		t.Errorf("expected one counted 500, got %v", got)
	}
}
