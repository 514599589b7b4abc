package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"nise/internal/input"
	"nise/internal/level"
	"nise/internal/minimap"
	"nise/internal/proximity"
	"nise/internal/render"
	"nise/internal/scene"
	"nise/internal/visitlog"
)

// Websocket frame defaults. Frames are small; the client scales them.
const (
	DefaultStreamWidth  = 160
	DefaultStreamHeight = 100
	writeWait           = 5 * time.Second
	sendBuffer          = 8
)

// clientMessage is sent by the browser.
type clientMessage struct {
	Type string `json:"type"` // "key"
	Key  string `json:"key"`
	Down bool   `json:"down"`
}

type levelMessage struct {
	Type  string `json:"type"` // "level"
	ID    string `json:"id"`
	Title string `json:"title"`
	Mode  string `json:"mode"`
}

type pose struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	DirX float64 `json:"dir_x"`
	DirY float64 `json:"dir_y"`
}

type frameMessage struct {
	Type    string            `json:"type"` // "frame"
	Seq     uint64            `json:"seq"`
	Width   int               `json:"width"`
	Height  int               `json:"height"`
	Player  pose              `json:"player"`
	Columns [][]render.Run    `json:"columns"`
	Minimap minimap.Schematic `json:"minimap"`
	Gaze    *eventMessage     `json:"gaze,omitempty"`
}

type eventMessage struct {
	Type  string         `json:"type,omitempty"` // "event"
	Kind  proximity.Kind `json:"kind"`
	ID    string         `json:"id"`
	Title string         `json:"title,omitempty"`
	Text  string         `json:"text,omitempty"`
	Goto  string         `json:"goto,omitempty"`
}

// wsSource delivers key messages into the attached scene's key state.
type wsSource struct {
	mu sync.Mutex
	st *input.State
}

func (s *wsSource) Attach(st *input.State) func() {
	s.mu.Lock()
	s.st = st
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.st = nil
		s.mu.Unlock()
	}
}

func (s *wsSource) Set(k input.Key, down bool) {
	s.mu.Lock()
	st := s.st
	s.mu.Unlock()
	if st != nil {
		st.Set(k, down)
	}
}

// serveWS plays one scene per connection: ?level= picks the level, w and h
// the frame size. Closing the connection detaches the scene.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("level")
	if id == "" {
		id = "lobby"
	}
	l, ok := s.loadLevel(w, id)
	if !ok {
		return
	}
	width, height, err := sizeParams(r.URL.Query().Get("w"), r.URL.Query().Get("h"), DefaultStreamWidth, DefaultStreamHeight)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	base := s.baseContext()
	if base.Err() != nil {
		respondError(w, http.StatusServiceUnavailable, "server shutting down")
		return
	}
	log := s.Log.With("level", l.ID, "remote", r.RemoteAddr)
	cfg := s.Config
	cfg.Logger = log
	sc, err := scene.NewForLevel(l, cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer sc.Detach()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	log.Info("websocket session started")

	ctx, cancel := context.WithCancel(base)
	defer cancel()
	send := make(chan []byte, sendBuffer)

	src := &wsSource{}
	if err := sc.AttachInput(src); err != nil {
		return
	}
	rec := &visitlog.Recorder{Store: s.Visits, Level: l.ID, Client: "web:" + r.RemoteAddr, Log: log}
	gaze := l.ProximityMode == proximity.Gaze
	sc.OnProximityEvent(func(ev proximity.Event) {
		rec.Observe(ev)
		if gaze || ev.Kind == proximity.KindNone {
			return
		}
		em := eventFor(l, ev)
		em.Type = "event"
		queue(send, em, true)
	})

	queue(send, levelMessage{Type: "level", ID: l.ID, Title: l.Title, Mode: l.ProximityMode.String()}, true)

	written := make(chan struct{})
	go func() {
		defer close(written)
		s.writePump(ctx, conn, send)
	}()
	go func() {
		defer cancel()
		readPump(conn, src, log)
	}()

	surf := render.NewStripSurface(width, height)
	sched := &scene.Scheduler{
		Scene:   sc,
		Surface: surf,
		OnFrame: func(f scene.Frame) {
			fm := frameMessage{
				Type:    "frame",
				Seq:     f.Seq,
				Width:   f.Width,
				Height:  f.Height,
				Player:  pose{f.Player.Pos.X(), f.Player.Pos.Y(), f.Player.Dir.X(), f.Player.Dir.Y()},
				Columns: surf.Columns(),
				Minimap: f.Minimap,
			}
			if gaze && f.Gaze.Kind != proximity.KindNone {
				em := eventFor(l, f.Gaze)
				fm.Gaze = &em
			}
			queue(send, fm, false)
		},
	}
	err = sched.Run(ctx)
	// Let the write pump send its close frame before the connection closes.
	cancel()
	<-written
	log.Info("websocket session ended", "reason", err)
}

// eventFor fills an event message with the point's content.
func eventFor(l *level.Level, ev proximity.Event) eventMessage {
	em := eventMessage{Kind: ev.Kind, ID: ev.ID}
	if pt, ok := l.Point(ev.ID); ok {
		em.Title, em.Text, em.Goto = pt.Title, pt.Text, pt.Goto
	}
	return em
}

// queue encodes v for the write pump. Frames are dropped when the client
// falls behind; other messages wait.
func queue(send chan<- []byte, v any, wait bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if wait {
		select {
		case send <- data:
		case <-time.After(writeWait):
		}
		return
	}
	select {
	case send <- data:
	default:
	}
}

func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, send <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

func readPump(conn *websocket.Conn, src *wsSource, log *slog.Logger) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn("websocket read", "error", err)
			}
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "key" {
			continue
		}
		if k := input.ParseKey(msg.Key); k != input.KeyNone {
			src.Set(k, msg.Down)
		}
	}
}
