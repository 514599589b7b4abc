// Package web serves levels, rendered frames and live websocket play over
// HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"nise/internal/level"
	"nise/internal/render"
	"nise/internal/scene"
	"nise/internal/visitlog"
)

// Render size limits for render.png and websocket frames.
const (
	DefaultRenderWidth  = 320
	DefaultRenderHeight = 200
	MaxRenderWidth      = 1920
	MaxRenderHeight     = 1080
	DefaultVisitLimit   = 20
	MaxVisitLimit       = 200
)

// Server holds the handlers' dependencies.
type Server struct {
	Config scene.Config
	Visits visitlog.Store // may be nil
	Log    *slog.Logger

	upgrader websocket.Upgrader
	ctx      context.Context // cancelled by Close
	cancel   context.CancelFunc
}

// NewServer returns a server using cfg as the base tuning for every scene.
func NewServer(cfg scene.Config, visits visitlog.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		Config: cfg,
		Visits: visits,
		Log:    log,
		ctx:    ctx,
		cancel: cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			// Browsers on any origin may play.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Close ends every websocket session and refuses new ones. http.Server
// does not track hijacked connections, so register it with
// RegisterOnShutdown.
func (s *Server) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) baseContext() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.Log))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Get("/levels", s.listLevels)
		r.Get("/levels/{id}", s.getLevel)
		r.Get("/levels/{id}/render.png", s.renderPNG)
		r.Get("/sections/{id}", s.getSection)
		r.Get("/visits", s.listVisits)
	})
	r.Get("/ws", s.serveWS)
	return r
}

type levelSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Mode  string `json:"mode"`
}

func (s *Server) listLevels(w http.ResponseWriter, r *http.Request) {
	out := []levelSummary{}
	for _, id := range level.IDs() {
		l, err := level.Load(id)
		if err != nil {
			s.Log.Warn("skipping level", "id", id, "error", err)
			continue
		}
		out = append(out, levelSummary{ID: l.ID, Title: l.Title, Mode: l.ProximityMode.String()})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) getLevel(w http.ResponseWriter, r *http.Request) {
	l, ok := s.loadLevel(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) getSection(w http.ResponseWriter, r *http.Request) {
	sec, err := level.LoadSection(chi.URLParam(r, "id"))
	if errors.Is(err, level.ErrUnknownSection) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sec)
}

// renderPNG draws a single frame. x, y, dx and dy override the level's
// spawn; w and h set the image size.
func (s *Server) renderPNG(w http.ResponseWriter, r *http.Request) {
	l, ok := s.loadLevel(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	q := r.URL.Query()
	cfg := scene.ForLevel(l, s.Config)
	var err error
	parse := func(name string, v *float64) {
		if err != nil || q.Get(name) == "" {
			return
		}
		*v, err = strconv.ParseFloat(q.Get(name), 64)
	}
	parse("x", &cfg.Start.X)
	parse("y", &cfg.Start.Y)
	parse("dx", &cfg.Start.DirX)
	parse("dy", &cfg.Start.DirY)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad pose: "+err.Error())
		return
	}
	width, height, err := sizeParams(q.Get("w"), q.Get("h"), DefaultRenderWidth, DefaultRenderHeight)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg.Logger = s.Log
	sc, err := scene.New(l.Map, l.Lookup(), cfg)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer sc.Detach()

	surf := render.NewImageSurface(width, height)
	if _, err := sc.RenderFrame(surf); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := png.Encode(w, surf.Img); err != nil {
		s.Log.Warn("png encode", "error", err)
	}
}

func (s *Server) listVisits(w http.ResponseWriter, r *http.Request) {
	limit := DefaultVisitLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxVisitLimit)
	}
	visits := []visitlog.Visit{}
	if s.Visits != nil {
		got, err := s.Visits.Recent(limit)
		if err != nil {
			s.Log.Warn("visit log: read failed", "error", err)
			respondError(w, http.StatusInternalServerError, "visit log unavailable")
			return
		}
		visits = append(visits, got...)
	}
	respondJSON(w, http.StatusOK, visits)
}

func (s *Server) loadLevel(w http.ResponseWriter, id string) (*level.Level, bool) {
	l, err := level.Load(id)
	if errors.Is(err, level.ErrUnknownLevel) {
		respondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return l, true
}

// sizeParams parses optional width and height, clamped to the maximums.
func sizeParams(ws, hs string, defW, defH int) (int, int, error) {
	w, h := defW, defH
	if ws != "" {
		v, err := strconv.Atoi(ws)
		if err != nil || v <= 0 {
			return 0, 0, errors.New("w must be a positive integer")
		}
		w = min(v, MaxRenderWidth)
	}
	if hs != "" {
		v, err := strconv.Atoi(hs)
		if err != nil || v <= 0 {
			return 0, 0, errors.New("h must be a positive integer")
		}
		h = min(v, MaxRenderHeight)
	}
	return w, h, nil
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start))
		})
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode json response", "error", err)
	}
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
