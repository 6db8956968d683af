package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/device-inventory/internal/auth"
	"github.com/nerrad567/device-inventory/internal/device"
	"github.com/nerrad567/device-inventory/internal/history"
	"github.com/nerrad567/device-inventory/internal/infrastructure/config"
	"github.com/nerrad567/device-inventory/internal/infrastructure/logging"
	"github.com/nerrad567/device-inventory/internal/stamp"
	"github.com/nerrad567/device-inventory/internal/user"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// testServer creates a Server over CSV repositories in a temp dir.
// An empty secret leaves auth disabled.
func testServer(t *testing.T, secret string, checks map[string]HealthChecker) (*Server, http.Handler) {
	t.Helper()

	dir := t.TempDir()
	src := stamp.NewSequence("id", t0)

	devRepo, err := device.NewCSVRepository(filepath.Join(dir, "devices.csv"))
	if err != nil {
		t.Fatalf("device repo: %v", err)
	}
	userRepo, err := user.NewCSVRepository(filepath.Join(dir, "users.csv"))
	if err != nil {
		t.Fatalf("user repo: %v", err)
	}
	histRepo, err := history.NewCSVRepository(filepath.Join(dir, "history.csv"))
	if err != nil {
		t.Fatalf("history repo: %v", err)
	}

	recorder := history.NewRecorder(histRepo, src)

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Port:     0,
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{Secret: secret, AccessTokenTTL: 15},
		},
		Logger:  logging.Discard(),
		Devices: device.NewManager(devRepo, recorder, src),
		Users:   user.NewRegistry(userRepo, src),
		History: recorder,
		Checks:  checks,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return srv, srv.buildRouter()
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code, message string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	e := decode[Error](t, w)
	if e.Code != code {
		t.Errorf("code = %q, want %q", e.Code, code)
	}
	if message != "" && e.Message != message {
		t.Errorf("error = %q, want %q", e.Message, message)
	}
}

const laptopBody = `{"device_type":"Laptop","connectivity":"WiFi","serial_number":"LAP001","os_version":"Windows 11"}`

func createDevice(t *testing.T, h http.Handler, body string, header ...string) device.Device {
	t.Helper()
	w := do(t, h, http.MethodPost, "/devices", body, header...)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201 (body %s)", w.Code, w.Body.String())
	}
	return decode[device.Device](t, w)
}

// ─── Health & Middleware ───────────────────────────────────────────

func TestHealth(t *testing.T) {
	_, h := testServer(t, "", nil)

	w := do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	resp := decode[map[string]any](t, w)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestHealth_FailingCheck(t *testing.T) {
	_, h := testServer(t, "", map[string]HealthChecker{
		"database": checkFunc(func(context.Context) error { return nil }),
		"mqtt":     checkFunc(func(context.Context) error { return errors.New("not connected") }),
	})

	w := do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("health status = %d, want 503", w.Code)
	}

	resp := decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, w)
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
	if resp.Checks["database"] != "ok" || resp.Checks["mqtt"] != "not connected" {
		t.Errorf("checks = %v", resp.Checks)
	}
}

func TestRequestID(t *testing.T) {
	_, h := testServer(t, "", nil)

	if w := do(t, h, http.MethodGet, "/health", ""); w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header should be generated")
	}

	w := do(t, h, http.MethodGet, "/health", "", "X-Request-ID", "req-42")
	if got := w.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	_, h := testServer(t, "", nil)

	w := do(t, h, http.MethodOptions, "/devices", "", "Origin", "http://localhost:3000")
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestNotFound(t *testing.T) {
	_, h := testServer(t, "", nil)

	expectError(t, do(t, h, http.MethodGet, "/nonexistent", ""), http.StatusNotFound, ErrCodeNotFound, "")
}

// ─── Devices ───────────────────────────────────────────────────────

func TestListDevices_Empty(t *testing.T) {
	_, h := testServer(t, "", nil)

	w := do(t, h, http.MethodGet, "/devices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestCheckoutLifecycle(t *testing.T) {
	_, h := testServer(t, "", nil)

	created := createDevice(t, h, laptopBody)
	if created.Status != device.StatusAvailable || created.UsageCount != 0 {
		t.Fatalf("created = %+v", created)
	}
	if created.CheckOutDate != nil {
		t.Errorf("check_out_date = %v, want null", created.CheckOutDate)
	}

	w := do(t, h, http.MethodPut, "/devices/"+created.ID+"/checkout", `{"user":"alice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("checkout status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	out := decode[device.Device](t, w)
	if out.Status != device.StatusCheckedOut || out.AssignedUser != "alice" || out.UsageCount != 1 || out.CheckOutDate == nil {
		t.Errorf("after checkout = %+v", out)
	}

	w = do(t, h, http.MethodPut, "/devices/"+created.ID+"/checkout", `{"user":"bob"}`)
	expectError(t, w, http.StatusBadRequest, ErrCodeInvalidState, "device is not available")

	w = do(t, h, http.MethodPut, "/devices/"+created.ID+"/checkin", "")
	if w.Code != http.StatusOK {
		t.Fatalf("checkin status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	in := decode[device.Device](t, w)
	if in.Status != device.StatusAvailable || in.AssignedUser != "" || in.CheckOutDate != nil || in.UsageCount != 1 {
		t.Errorf("after checkin = %+v", in)
	}

	w = do(t, h, http.MethodGet, "/history/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d, want 200", w.Code)
	}
	records := decode[[]history.Record](t, w)
	want := []struct {
		action history.Action
		user   string
	}{
		{history.ActionCheckedIn, "alice"},
		{history.ActionCheckedOut, "alice"},
		{history.ActionCreated, history.SystemUser},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d history records, want %d: %+v", len(records), len(want), records)
	}
	for i, rec := range records {
		if rec.Action != want[i].action || rec.User != want[i].user {
			t.Errorf("record %d = %s by %s, want %s by %s", i, rec.Action, rec.User, want[i].action, want[i].user)
		}
	}
}

func TestCheckin_NotCheckedOut(t *testing.T) {
	_, h := testServer(t, "", nil)
	d := createDevice(t, h, laptopBody)

	w := do(t, h, http.MethodPut, "/devices/"+d.ID+"/checkin", "")
	expectError(t, w, http.StatusBadRequest, ErrCodeInvalidState, "device is not checked out")
}

func TestCheckout_UserRequired(t *testing.T) {
	_, h := testServer(t, "", nil)
	d := createDevice(t, h, laptopBody)

	for _, body := range []string{"", `{}`, `{"user":"   "}`} {
		w := do(t, h, http.MethodPut, "/devices/"+d.ID+"/checkout", body)
		expectError(t, w, http.StatusBadRequest, ErrCodeValidation, "user is required for checkout")
	}
}

func TestCheckout_UnknownDevice(t *testing.T) {
	_, h := testServer(t, "", nil)

	w := do(t, h, http.MethodPut, "/devices/missing/checkout", `{"user":"alice"}`)
	expectError(t, w, http.StatusNotFound, ErrCodeNotFound, "device not found")
}

func TestGetDevice(t *testing.T) {
	_, h := testServer(t, "", nil)
	d := createDevice(t, h, laptopBody)

	w := do(t, h, http.MethodGet, "/devices/"+d.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	got := decode[device.Device](t, w)
	if got.SerialNumber != "LAP001" || got.DeviceType != "Laptop" {
		t.Errorf("got %+v", got)
	}

	expectError(t, do(t, h, http.MethodGet, "/devices/missing", ""), http.StatusNotFound, ErrCodeNotFound, "device not found")
}

func TestCreateDevice_Errors(t *testing.T) {
	_, h := testServer(t, "", nil)
	createDevice(t, h, laptopBody)

	tests := []struct {
		name    string
		body    string
		code    string
		message string
	}{
		{
			name:    "missing field",
			body:    `{"device_type":"Laptop","connectivity":"WiFi","serial_number":"LAP002"}`,
			code:    ErrCodeValidation,
			message: "missing required field: os_version",
		},
		{
			name:    "blank field",
			body:    `{"device_type":"  ","connectivity":"WiFi","serial_number":"LAP002","os_version":"x"}`,
			code:    ErrCodeValidation,
			message: "missing required field: device_type",
		},
		{
			name:    "duplicate serial",
			body:    laptopBody,
			code:    ErrCodeConflict,
			message: "serial number already exists",
		},
		{
			name:    "bad status",
			body:    `{"device_type":"Phone","connectivity":"5G","serial_number":"PH1","os_version":"iOS 17","status":"lost"}`,
			code:    ErrCodeValidation,
			message: `unknown status "lost"`,
		},
		{
			name:    "bad check_out_date",
			body:    `{"device_type":"Phone","connectivity":"5G","serial_number":"PH1","os_version":"iOS 17","status":"checked_out","assigned_user":"bob","check_out_date":"yesterday"}`,
			code:    ErrCodeValidation,
			message: "check_out_date is not a valid timestamp",
		},
		{
			name: "invalid json",
			body: `{not json`,
			code: ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, do(t, h, http.MethodPost, "/devices", tt.body), http.StatusBadRequest, tt.code, tt.message)
		})
	}
}

func TestCreateDevice_EmptyCheckOutDate(t *testing.T) {
	_, h := testServer(t, "", nil)

	d := createDevice(t, h, `{"device_type":"Tablet","connectivity":"WiFi","serial_number":"TAB1","os_version":"Android 14","status":"available","check_out_date":""}`)
	if d.CheckOutDate != nil {
		t.Errorf("check_out_date = %v, want null", d.CheckOutDate)
	}
}

func TestCreateDevice_CheckedOut(t *testing.T) {
	_, h := testServer(t, "", nil)

	d := createDevice(t, h, `{"device_type":"Phone","connectivity":"5G","serial_number":"PH1","os_version":"iOS 17","status":"checked_out","assigned_user":"carol","usage_count":3,"check_out_date":"2026-02-01T10:00:00Z"}`)
	if d.Status != device.StatusCheckedOut || d.AssignedUser != "carol" || d.UsageCount != 3 {
		t.Errorf("got %+v", d)
	}
	if d.CheckOutDate == nil || !d.CheckOutDate.Equal(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("check_out_date = %v", d.CheckOutDate)
	}
}

func TestUpdateDevice(t *testing.T) {
	_, h := testServer(t, "", nil)
	d := createDevice(t, h, laptopBody)
	createDevice(t, h, `{"device_type":"Phone","connectivity":"5G","serial_number":"PH1","os_version":"iOS 17"}`)

	w := do(t, h, http.MethodPut, "/devices/"+d.ID, `{"os_version":"Windows 11 24H2","updated_by":"it-admin","id":"ignored","created_at":"2000-01-01T00:00:00Z"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	got := decode[device.Device](t, w)
	if got.ID != d.ID || got.OSVersion != "Windows 11 24H2" || !got.CreatedAt.Equal(d.CreatedAt) {
		t.Errorf("after update = %+v", got)
	}
	if !got.LastUpdated.After(d.LastUpdated) {
		t.Errorf("last_updated %v not after %v", got.LastUpdated, d.LastUpdated)
	}

	// Same serial as itself is allowed.
	if w := do(t, h, http.MethodPut, "/devices/"+d.ID, `{"serial_number":"LAP001"}`); w.Code != http.StatusOK {
		t.Errorf("own serial status = %d, want 200", w.Code)
	}

	expectError(t, do(t, h, http.MethodPut, "/devices/"+d.ID, `{"serial_number":"PH1"}`),
		http.StatusBadRequest, ErrCodeConflict, "serial number already exists")
	expectError(t, do(t, h, http.MethodPut, "/devices/"+d.ID, `{"color":"red"}`),
		http.StatusBadRequest, ErrCodeBadRequest, "")
	expectError(t, do(t, h, http.MethodPut, "/devices/"+d.ID, `{"connectivity":""}`),
		http.StatusBadRequest, ErrCodeValidation, "connectivity must not be blank")
	expectError(t, do(t, h, http.MethodPut, "/devices/missing", `{"os_version":"x"}`),
		http.StatusNotFound, ErrCodeNotFound, "device not found")

	records := decode[[]history.Record](t, do(t, h, http.MethodGet, "/history/"+d.ID, ""))
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[2].Action != history.ActionCreated {
		t.Errorf("oldest action = %s, want device_created", records[2].Action)
	}
	if records[1].Action != history.ActionUpdated || records[1].User != "it-admin" {
		t.Errorf("first update = %+v, want device_updated by it-admin", records[1])
	}
	if records[0].User != history.SystemUser {
		t.Errorf("second update user = %q, want system", records[0].User)
	}
}

func TestUpdateDevice_FullDeviceBody(t *testing.T) {
	_, h := testServer(t, "", nil)
	d := createDevice(t, h, laptopBody)

	// A fetched device sent back whole, as the web client does on edit.
	body := `{"id":"` + d.ID + `","device_type":"Laptop","connectivity":"Ethernet",` +
		`"serial_number":"LAP001","os_version":"Windows 11","assigned_user":"","status":"available",` +
		`"usage_count":0,"check_out_date":"","created_at":"2000-01-01T00:00:00Z","last_updated":""}`
	w := do(t, h, http.MethodPut, "/devices/"+d.ID, body)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	got := decode[device.Device](t, w)
	if got.Connectivity != "Ethernet" {
		t.Errorf("connectivity = %q, want Ethernet", got.Connectivity)
	}

	// Lifecycle columns are never applied through update.
	w = do(t, h, http.MethodPut, "/devices/"+d.ID,
		`{"assigned_user":"mallory","status":"checked_out","usage_count":99,"check_out_date":"2026-01-01T00:00:00Z"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	got = decode[device.Device](t, w)
	if got.Status != device.StatusAvailable || got.AssignedUser != "" || got.UsageCount != 0 || got.CheckOutDate != nil {
		t.Errorf("lifecycle columns changed by update: %+v", got)
	}
}

func TestSearchDevices(t *testing.T) {
	_, h := testServer(t, "", nil)
	createDevice(t, h, laptopBody)
	createDevice(t, h, `{"device_type":"Phone","connectivity":"5G","serial_number":"PH1","os_version":"iOS 17"}`)

	for _, q := range []string{"", "%20%20"} {
		w := do(t, h, http.MethodGet, "/devices/search?q="+q, "")
		if body := strings.TrimSpace(w.Body.String()); w.Code != http.StatusOK || body != "[]" {
			t.Errorf("search %q = %d %s, want 200 []", q, w.Code, body)
		}
	}

	got := decode[[]device.Device](t, do(t, h, http.MethodGet, "/devices/search?q=lap", ""))
	if len(got) != 1 || got[0].SerialNumber != "LAP001" {
		t.Errorf("search lap = %+v", got)
	}

	got = decode[[]device.Device](t, do(t, h, http.MethodGet, "/devices/search?q=IOS", ""))
	if len(got) != 1 || got[0].SerialNumber != "PH1" {
		t.Errorf("search IOS = %+v", got)
	}
}

func TestRecommendations(t *testing.T) {
	_, h := testServer(t, "", nil)
	low := createDevice(t, h, `{"device_type":"Laptop","connectivity":"WiFi","serial_number":"A","os_version":"Windows 11","usage_count":2}`)
	createDevice(t, h, `{"device_type":"Phone","connectivity":"5G","serial_number":"B","os_version":"iOS 17","usage_count":10}`)
	legacy := createDevice(t, h, `{"device_type":"Desktop","connectivity":"LAN","serial_number":"C","os_version":"Legacy Linux","usage_count":30}`)

	got := decode[[]device.Device](t, do(t, h, http.MethodGet, "/devices/recommendations", ""))
	if len(got) != 2 || got[0].ID != low.ID || got[1].ID != legacy.ID {
		t.Errorf("recommendations = %+v", got)
	}
}

func TestDeviceStats(t *testing.T) {
	_, h := testServer(t, "", nil)
	d := createDevice(t, h, laptopBody)
	createDevice(t, h, `{"device_type":"Phone","connectivity":"5G","serial_number":"PH1","os_version":"iOS 17"}`)
	do(t, h, http.MethodPut, "/devices/"+d.ID+"/checkout", `{"user":"alice"}`)

	stats := decode[device.Stats](t, do(t, h, http.MethodGet, "/devices/stats", ""))
	if stats.Total != 2 || stats.Available != 1 || stats.CheckedOut != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByType["Laptop"] != 1 || stats.ByType["Phone"] != 1 {
		t.Errorf("by_type = %v", stats.ByType)
	}
}

// ─── Users ─────────────────────────────────────────────────────────

func TestUsers(t *testing.T) {
	_, h := testServer(t, "", nil)

	body := `{"name":"Alice","email":"alice@example.com","department":"IT","role":"Engineer"}`
	w := do(t, h, http.MethodPost, "/users", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201 (body %s)", w.Code, w.Body.String())
	}
	u := decode[user.User](t, w)
	if u.ID == "" || u.Status != user.DefaultStatus || u.JoinDate.IsZero() {
		t.Errorf("created user = %+v", u)
	}

	expectError(t, do(t, h, http.MethodPost, "/users", body), http.StatusBadRequest, ErrCodeConflict, "email already exists")
	expectError(t, do(t, h, http.MethodPost, "/users", `{"name":"Bob","email":"bob@example.com","role":"x"}`),
		http.StatusBadRequest, ErrCodeValidation, "missing required field: department")

	users := decode[[]user.User](t, do(t, h, http.MethodGet, "/users", ""))
	if len(users) != 1 || users[0].Email != "alice@example.com" {
		t.Errorf("users = %+v", users)
	}
}

// ─── History ───────────────────────────────────────────────────────

func TestListHistory(t *testing.T) {
	_, h := testServer(t, "", nil)
	d := createDevice(t, h, laptopBody)
	do(t, h, http.MethodPut, "/devices/"+d.ID+"/checkout", `{"user":"alice"}`)
	do(t, h, http.MethodPut, "/devices/"+d.ID+"/checkin", "")

	res := decode[history.ListResult](t, do(t, h, http.MethodGet, "/history?action=device_checked_out", ""))
	if res.Total != 1 || len(res.Records) != 1 || res.Records[0].User != "alice" {
		t.Errorf("filtered history = %+v", res)
	}

	res = decode[history.ListResult](t, do(t, h, http.MethodGet, "/history?limit=2", ""))
	if res.Total != 3 || len(res.Records) != 2 || res.Limit != 2 {
		t.Errorf("paged history = %+v", res)
	}
	if res.Records[0].Action != history.ActionCheckedIn {
		t.Errorf("newest = %s, want device_checked_in", res.Records[0].Action)
	}

	expectError(t, do(t, h, http.MethodGet, "/history?limit=abc", ""), http.StatusBadRequest, ErrCodeBadRequest, "limit must be a non-negative integer")
	expectError(t, do(t, h, http.MethodGet, "/history?offset=-1", ""), http.StatusBadRequest, ErrCodeBadRequest, "offset must be a non-negative integer")
}

func TestDeviceHistory_Unknown(t *testing.T) {
	_, h := testServer(t, "", nil)

	w := do(t, h, http.MethodGet, "/history/nope", "")
	if body := strings.TrimSpace(w.Body.String()); w.Code != http.StatusOK || body != "[]" {
		t.Errorf("history = %d %s, want 200 []", w.Code, body)
	}
}

// ─── Auth ──────────────────────────────────────────────────────────

func bearer(t *testing.T, subject string, role auth.Role) []string {
	t.Helper()
	token, err := auth.IssueToken(subject, role, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return []string{"Authorization", "Bearer " + token}
}

func TestAuth_MutatingRoutes(t *testing.T) {
	_, h := testServer(t, testSecret, nil)

	expectError(t, do(t, h, http.MethodPost, "/devices", laptopBody), http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
	expectError(t, do(t, h, http.MethodPost, "/devices", laptopBody, "Authorization", "Bearer garbage"),
		http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or expired token")
	expectError(t, do(t, h, http.MethodPost, "/devices", laptopBody, bearer(t, "olly", auth.RoleOperator)...),
		http.StatusForbidden, ErrCodeForbidden, "")

	admin := bearer(t, "ada", auth.RoleAdmin)
	d := createDevice(t, h, laptopBody, admin...)

	// Reads stay open.
	if w := do(t, h, http.MethodGet, "/devices", ""); w.Code != http.StatusOK {
		t.Errorf("GET /devices status = %d, want 200", w.Code)
	}

	// Operators may check out and in.
	operator := bearer(t, "olly", auth.RoleOperator)
	if w := do(t, h, http.MethodPut, "/devices/"+d.ID+"/checkout", `{"user":"alice"}`, operator...); w.Code != http.StatusOK {
		t.Errorf("operator checkout status = %d, want 200", w.Code)
	}
	if w := do(t, h, http.MethodPut, "/devices/"+d.ID+"/checkin", "", operator...); w.Code != http.StatusOK {
		t.Errorf("operator checkin status = %d, want 200", w.Code)
	}

	// An update without updated_by is attributed to the token subject.
	if w := do(t, h, http.MethodPut, "/devices/"+d.ID, `{"os_version":"Windows 12"}`, admin...); w.Code != http.StatusOK {
		t.Fatalf("admin update status = %d, want 200", w.Code)
	}
	records := decode[[]history.Record](t, do(t, h, http.MethodGet, "/history/"+d.ID, ""))
	if len(records) == 0 || records[0].Action != history.ActionUpdated || records[0].User != "ada" {
		t.Errorf("latest record = %+v, want device_updated by ada", records)
	}

	expectError(t, do(t, h, http.MethodPost, "/users", `{"name":"A","email":"a@x","department":"d","role":"r"}`, operator...),
		http.StatusForbidden, ErrCodeForbidden, "")
}

// ─── Metrics ───────────────────────────────────────────────────────

func TestMetrics(t *testing.T) {
	_, h := testServer(t, "", nil)
	d := createDevice(t, h, laptopBody)
	do(t, h, http.MethodPut, "/devices/"+d.ID+"/checkout", `{"user":"alice"}`)

	w := do(t, h, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`inventory_events_total{action="device_created"} 1`,
		`inventory_events_total{action="device_checked_out"} 1`,
		`inventory_http_requests_total{method="POST"`,
		`inventory_http_request_duration_seconds_bucket`,
		`inventory_websocket_clients 0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

// ─── WebSocket ─────────────────────────────────────────────────────

func TestHub_NotifyFiltersByAction(t *testing.T) {
	hub := NewHub(logging.Discard())

	actions, err := parseActions("device_checked_out")
	if err != nil {
		t.Fatalf("parseActions() error: %v", err)
	}
	client := &streamClient{send: make(chan []byte, streamSendBuffer), actions: actions}
	hub.add(client)

	hub.Notify(context.Background(), history.Record{DeviceID: "d1", Action: history.ActionCreated})
	hub.Notify(context.Background(), history.Record{DeviceID: "d1", User: "alice", Action: history.ActionCheckedOut})

	select {
	case msg := <-client.send:
		var ev StreamEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Action != history.ActionCheckedOut || ev.Record.User != "alice" {
			t.Errorf("event = %+v, want device_checked_out by alice", ev)
		}
	default:
		t.Fatal("expected a message for the selected action")
	}

	select {
	case msg := <-client.send:
		t.Errorf("unexpected extra message: %s", msg)
	default:
	}
}

func TestHub_NotifyDoesNotBlockOnFullClient(t *testing.T) {
	hub := NewHub(logging.Discard())
	client := &streamClient{send: make(chan []byte, 1)}
	hub.add(client)

	for i := 0; i < 3; i++ {
		hub.Notify(context.Background(), history.Record{DeviceID: "d1", Action: history.ActionUpdated})
	}
	if len(client.send) != 1 {
		t.Errorf("queued = %d, want 1", len(client.send))
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := NewHub(logging.Discard())
	if hub.ClientCount() != 0 {
		t.Errorf("initial count = %d, want 0", hub.ClientCount())
	}

	client := &streamClient{send: make(chan []byte, 1)}
	hub.add(client)
	if hub.ClientCount() != 1 {
		t.Errorf("count after add = %d, want 1", hub.ClientCount())
	}

	hub.remove(client)
	hub.remove(client)
	if hub.ClientCount() != 0 {
		t.Errorf("count after remove = %d, want 0", hub.ClientCount())
	}
}

func TestParseActions(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"*", 0, false},
		{"device_created, device_checked_in", 2, false},
		{"device_created,bogus", 0, true},
	}
	for _, tt := range tests {
		got, err := parseActions(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseActions(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && len(got) != tt.want {
			t.Errorf("parseActions(%q) = %v, want %d actions", tt.raw, got, tt.want)
		}
	}
}

func TestWebSocket_ReceivesHistoryEvents(t *testing.T) {
	_, h := testServer(t, "", nil)
	ts := httptest.NewServer(h)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?actions=device_created"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	resp.Body.Close()

	//nolint:errcheck // test deadline
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	res, err := http.Post(ts.URL+"/devices", "application/json", strings.NewReader(laptopBody))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var created device.Device
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}
	res.Body.Close()

	var event StreamEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if event.Action != history.ActionCreated || event.Record.DeviceID != created.ID {
		t.Errorf("event = %+v, want device_created for %s", event, created.ID)
	}
}

func TestWebSocket_RejectsUnknownAction(t *testing.T) {
	_, h := testServer(t, "", nil)
	expectError(t, do(t, h, http.MethodGet, "/ws?actions=device_lost", ""),
		http.StatusBadRequest, ErrCodeBadRequest, `unknown action "device_lost"`)
}

func TestWebSocket_RequiresTokenWhenAuthEnabled(t *testing.T) {
	_, h := testServer(t, testSecret, nil)

	expectError(t, do(t, h, http.MethodGet, "/ws", ""), http.StatusUnauthorized, ErrCodeUnauthorized, "token query parameter is required")
	expectError(t, do(t, h, http.MethodGet, "/ws?token=bad", ""), http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or expired token")
}

// ─── Lifecycle ─────────────────────────────────────────────────────

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() with no logger should fail")
	}
	if _, err := New(Deps{Logger: logging.Discard()}); err == nil {
		t.Error("New() with no device manager should fail")
	}
}

func TestServer_HealthCheckBeforeStart(t *testing.T) {
	srv, _ := testServer(t, "", nil)
	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := srv.Close(); err != nil {
		t.Errorf("Close() before Start = %v", err)
	}
}

func TestServer_StartAppliesTimeouts(t *testing.T) {
	srv, _ := testServer(t, "", nil)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer srv.Close() //nolint:errcheck // test cleanup

	if srv.server.ReadTimeout != 5*time.Second || srv.server.WriteTimeout != 5*time.Second || srv.server.IdleTimeout != 5*time.Second {
		t.Errorf("timeouts = %v/%v/%v, want 5s each",
			srv.server.ReadTimeout, srv.server.WriteTimeout, srv.server.IdleTimeout)
	}
	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() after Start = %v", err)
	}
}
