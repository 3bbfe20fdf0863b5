package simulator

import (
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/image/draw"

	"github.com/chronologos/ledwall/internal/auth"
	"github.com/chronologos/ledwall/internal/transport"
)

// maxScale bounds the ?scale= query on /frame.png.
const maxScale = 32

// Handler returns the simulator's HTTP API:
//
//	GET /healthz         liveness
//	GET /frame.png       current frame, optionally ?scale=N
//	GET /metrics         Prometheus metrics
//	GET /ws              WebSocket ingress for the display protocol
//
// /frame.png and /ws require Config.Token when it is set.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.cfg.Token))
		r.Get("/frame.png", s.handleFrame)
		r.Get("/ws", s.handleWebSocket)
	})
	return r
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	scale := 1
	if v := r.URL.Query().Get("scale"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxScale {
			http.Error(w, "scale must be between 1 and "+strconv.Itoa(maxScale), http.StatusBadRequest)
			return
		}
		scale = n
	}

	var img image.Image = s.fb.Snapshot()
	if scale > 1 {
		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		s.log.Warn("encode frame", "err", err)
	}
}

// handleWebSocket serves one display client over a WebSocket for the
// lifetime of the request. Hijacked connections are invisible to
// http.Server.Shutdown, so Close tracks them instead.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.begin() {
		http.Error(w, "simulator shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.wg.Done()

	stream, err := transport.UpgradeWebSocket(w, r)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	s.ServeStream(stream)
}
