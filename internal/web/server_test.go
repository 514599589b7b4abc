package web

import (
	"encoding/json"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"nise/internal/proximity"
	"nise/internal/scene"
	"nise/internal/visitlog"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := scene.DefaultConfig()
	cfg.RefreshRate = 200
	visits := visitlog.NewFileStore(filepath.Join(t.TempDir(), "visits.jsonl"))
	s := NewServer(cfg, visits, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return s, ts
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s = %d (%s), want %d", url, resp.StatusCode, body, wantStatus)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	var body map[string]string
	getJSON(t, ts.URL+"/api/health", http.StatusOK, &body)
	if body["status"] != "ok" {
		t.Errorf("health = %v", body)
	}
}

func TestLevels(t *testing.T) {
	_, ts := newTestServer(t)
	var list []levelSummary
	getJSON(t, ts.URL+"/api/levels", http.StatusOK, &list)
	modes := map[string]string{}
	for _, l := range list {
		modes[l.ID] = l.Mode
	}
	if modes["lobby"] != "footstep" || modes["museum"] != "gaze" {
		t.Fatalf("levels = %+v", list)
	}

	var lobby struct {
		ID     string  `json:"id"`
		Grid   [][]int `json:"grid"`
		Points []struct {
			ID string `json:"id"`
		} `json:"points"`
	}
	getJSON(t, ts.URL+"/api/levels/lobby", http.StatusOK, &lobby)
	if lobby.ID != "lobby" || len(lobby.Grid) != 16 || len(lobby.Points) != 4 {
		t.Fatalf("lobby = %+v", lobby)
	}

	getJSON(t, ts.URL+"/api/levels/attic", http.StatusNotFound, nil)
	getJSON(t, ts.URL+"/api/levels/..%2Fetc", http.StatusNotFound, nil)
}

func TestSection(t *testing.T) {
	_, ts := newTestServer(t)
	var sec struct {
		Title string   `json:"title"`
		Body  []string `json:"body"`
	}
	getJSON(t, ts.URL+"/api/sections/nise", http.StatusOK, &sec)
	if sec.Title == "" || len(sec.Body) == 0 {
		t.Fatalf("section = %+v", sec)
	}
	getJSON(t, ts.URL+"/api/sections/nope", http.StatusNotFound, nil)
}

func TestRenderPNG(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/levels/lobby/render.png?w=64&h=48")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("status %d, type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("bounds = %v", b)
	}
	ceiling := color.RGBA{0xfa, 0xfa, 0xfa, 0xff}
	if got := color.RGBAModel.Convert(img.At(32, 0)); got != ceiling {
		t.Errorf("top pixel = %v, want ceiling %v", got, ceiling)
	}
	if got := color.RGBAModel.Convert(img.At(32, 24)); got == ceiling {
		t.Error("centre pixel should be wall")
	}
}

func TestRenderPNGRejects(t *testing.T) {
	_, ts := newTestServer(t)
	cases := []struct {
		name   string
		query  string
		status int
	}{
		{"start inside a wall", "?x=0.5&y=0.5", http.StatusBadRequest},
		{"bad number", "?x=abc", http.StatusBadRequest},
		{"zero direction", "?dx=0&dy=0", http.StatusBadRequest},
		{"NaN direction", "?dx=NaN", http.StatusBadRequest},
		{"infinite direction", "?dx=Inf", http.StatusBadRequest},
		{"denormal direction", "?dx=1e-320&dy=0", http.StatusBadRequest},
		{"negative width", "?w=-1", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			getJSON(t, ts.URL+"/api/levels/lobby/render.png"+tc.query, tc.status, nil)
		})
	}
}

func TestVisits(t *testing.T) {
	s, ts := newTestServer(t)
	var empty []visitlog.Visit
	getJSON(t, ts.URL+"/api/visits", http.StatusOK, &empty)
	if len(empty) != 0 {
		t.Fatalf("visits = %+v", empty)
	}

	for _, id := range []string{"projects", "posts"} {
		if err := s.Visits.Record(visitlog.Visit{Level: "lobby", Kind: proximity.KindPortal, ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	var got []visitlog.Visit
	getJSON(t, ts.URL+"/api/visits?limit=1", http.StatusOK, &got)
	if len(got) != 1 || got[0].ID != "posts" {
		t.Fatalf("visits = %+v", got)
	}
	getJSON(t, ts.URL+"/api/visits?limit=zero", http.StatusBadRequest, nil)
}

func dial(t *testing.T, ts *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestWebsocketPlay(t *testing.T) {
	_, ts := newTestServer(t)
	conn, _, err := dial(t, ts, "?level=lobby&w=40&h=20")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var hello levelMessage
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatal(err)
	}
	if hello.Type != "level" || hello.ID != "lobby" || hello.Mode != "footstep" {
		t.Fatalf("hello = %+v", hello)
	}

	var f frameMessage
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatal(err)
	}
	if f.Type != "frame" || len(f.Columns) != 40 || f.Width != 40 || f.Height != 20 {
		t.Fatalf("frame type %q, %d columns, %dx%d", f.Type, len(f.Columns), f.Width, f.Height)
	}
	for x, col := range f.Columns {
		n := 0
		for _, r := range col {
			n += r.N
		}
		if n != 20 {
			t.Fatalf("column %d covers %d rows", x, n)
		}
	}
	if f.Minimap.Width != 16 {
		t.Errorf("minimap width = %d", f.Minimap.Width)
	}
	startX := f.Player.X

	if err := conn.WriteJSON(clientMessage{Type: "key", Key: "w", Down: true}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 200; i++ {
		var msg frameMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type == "frame" && msg.Player.X < startX-0.1 {
			return
		}
	}
	t.Fatal("player never moved forward")
}

func TestWebsocketUnknownLevel(t *testing.T) {
	_, ts := newTestServer(t)
	_, resp, err := dial(t, ts, "?level=attic")
	if err == nil {
		t.Fatal("dial should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("resp = %v", resp)
	}
}

func TestCloseEndsWebsocketSessions(t *testing.T) {
	s, ts := newTestServer(t)
	conn, _, err := dial(t, ts, "?level=lobby&w=8&h=4")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var hello levelMessage
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatal(err)
	}

	s.Close()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("read err = %v, want a normal close", err)
			}
			break
		}
	}

	_, resp, err := dial(t, ts, "?level=lobby")
	if err == nil {
		t.Fatal("dial after Close should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("resp = %v", resp)
	}
}
