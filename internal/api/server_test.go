package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/catsim/internal/engine"
	"github.com/talgya/catsim/internal/world"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	sim, err := engine.New(engine.Params{
		Population:         10,
		Steps:              30,
		Width:              8,
		Height:             5,
		Neighborhood:       world.Moore,
		NeighborhoodRadius: 2,
		Seed:               4,
	}, nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	return &Server{Eng: engine.NewEngine(sim), RunID: "test-run", AdminKey: "secret"}
}

func get(t *testing.T, h http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
	}
	return rec
}

func TestStatus(t *testing.T) {
	s := newServer(t)
	var status map[string]any
	rec := get(t, s.Handler(), "/api/v1/status", &status)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code %d", rec.Code)
	}
	if status["population"].(float64) != 10 || status["run_id"] != "test-run" || status["sim_time"] != "Day 1, 00:00" {
		t.Fatalf("status = %v", status)
	}
}

func TestStateAndMap(t *testing.T) {
	s := newServer(t)
	s.Eng.Step()
	h := s.Handler()

	var snap engine.Snapshot
	get(t, h, "/api/v1/state", &snap)
	if snap.Step != 1 || len(snap.Cells) != 5 || len(snap.Cells[0]) != 8 {
		t.Fatalf("snapshot step %d grid %dx%d", snap.Step, len(snap.Cells[0]), len(snap.Cells))
	}

	var m struct {
		Layer string      `json:"layer"`
		Grid  [][]float64 `json:"grid"`
	}
	get(t, h, "/api/v1/map?layer=cats", &m)
	total := 0.0
	for _, row := range m.Grid {
		for _, v := range row {
			total += v
		}
	}
	if m.Layer != "cats" || int(total) != snap.Population {
		t.Fatalf("cats layer sums to %v, population %d", total, snap.Population)
	}
	if rec := get(t, h, "/api/v1/map?layer=smell", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown layer code %d", rec.Code)
	}
}

func TestCats(t *testing.T) {
	s := newServer(t)
	h := s.Handler()

	var all []engine.CatView
	get(t, h, "/api/v1/cats", &all)
	if len(all) != 10 {
		t.Fatalf("cats = %d", len(all))
	}
	var females []engine.CatView
	get(t, h, "/api/v1/cats?gender=female", &females)
	for _, c := range females {
		if c.Gender.String() != "female" {
			t.Fatalf("filter let through %v", c.Gender)
		}
	}

	var one struct {
		engine.CatView
		StateHours map[string]int `json:"state_hours"`
	}
	rec := get(t, h, "/api/v1/cat/"+strconv.FormatUint(uint64(all[0].ID), 10), &one)
	if rec.Code != http.StatusOK || one.ID != all[0].ID {
		t.Fatalf("cat detail code %d id %d", rec.Code, one.ID)
	}
	if _, ok := one.StateHours["active"]; !ok || len(one.StateHours) != 4 {
		t.Fatalf("state hours = %v", one.StateHours)
	}
	if rec := get(t, h, "/api/v1/cat/9999", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing cat code %d", rec.Code)
	}
	if rec := get(t, h, "/api/v1/cat/abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id code %d", rec.Code)
	}
}

func TestEventsLimit(t *testing.T) {
	s := newServer(t)
	for i := 0; i < 20; i++ {
		s.Eng.Step()
	}
	var events []engine.Event
	get(t, s.Handler(), "/api/v1/events?limit=3", &events)
	if len(events) > 3 {
		t.Fatalf("got %d events, limit 3", len(events))
	}

	rec := get(t, s.Handler(), "/api/v1/events?category=no-such-category", nil)
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("empty filter body = %q, want []", body)
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	s := newServer(t)
	if rec := get(t, s.Handler(), "/api/v1/history", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("code %d", rec.Code)
	}
}

func TestAdminEndpoints(t *testing.T) {
	s := newServer(t)
	h := s.Handler()

	post := func(path, token string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := get(t, h, "/api/v1/pause", nil).Code; code != http.StatusMethodNotAllowed {
		t.Fatalf("GET pause code %d", code)
	}
	if code := post("/api/v1/pause", "wrong"); code != http.StatusUnauthorized {
		t.Fatalf("bad token code %d", code)
	}
	if code := post("/api/v1/pause", "secret"); code != http.StatusOK || !s.Eng.Paused() {
		t.Fatalf("pause code %d paused %v", code, s.Eng.Paused())
	}
	if code := post("/api/v1/resume", "secret"); code != http.StatusOK || s.Eng.Paused() {
		t.Fatalf("resume code %d paused %v", code, s.Eng.Paused())
	}

	s.AdminKey = ""
	if code := post("/api/v1/pause", ""); code != http.StatusForbidden {
		t.Fatalf("disabled admin code %d", code)
	}
}

func TestCORS(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("preflight code %d headers %v", rec.Code, rec.Header())
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("a"); !ok {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	now = now.Add(15 * time.Second)
	ok, wait := rl.Allow("a")
	if ok || wait != 45*time.Second {
		t.Fatalf("third request = %v, wait %v; want limited for 45s", ok, wait)
	}
	if ok, _ := rl.Allow("b"); !ok {
		t.Fatal("other clients have their own budget")
	}
	now = now.Add(45 * time.Second)
	if ok, _ := rl.Allow("a"); !ok {
		t.Fatal("budget should reset after the window")
	}

	now = now.Add(3 * time.Minute)
	rl.Allow("c")
	if len(rl.clients) != 1 {
		t.Fatalf("idle clients kept: %d", len(rl.clients))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	h := RateLimitMiddleware(rl, func(w http.ResponseWriter, r *http.Request) {})

	call := func(xff string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}
	if call("").Code != http.StatusOK {
		t.Fatal("first call limited")
	}
	rec := call("")
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "3600" {
		t.Fatalf("second call code %d", rec.Code)
	}
	if call("10.0.0.1, 10.0.0.2").Code != http.StatusOK {
		t.Fatal("forwarded client should have its own budget")
	}
}

func TestStream(t *testing.T) {
	s := newServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream?full=1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first StreamMessage
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatal(err)
	}
	if first.Step != 0 || first.Snapshot == nil || first.Population != 10 {
		t.Fatalf("first message %+v", first)
	}

	s.Eng.Step()
	var second StreamMessage
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatal(err)
	}
	if second.Step != 1 || second.Report.Step != 1 {
		t.Fatalf("second message step %d report %d", second.Step, second.Report.Step)
	}
}
