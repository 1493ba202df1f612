package relay

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
	"go.uber.org/zap"

	"switchbomb/internal/config"
	"switchbomb/internal/middleware"
	"switchbomb/internal/room"
)

// Server is the relay's HTTP surface: the websocket endpoint peers sync
// through, a share page with a scannable QR code per room, and health
// probes.
type Server struct {
	cfg      *config.Config
	hub      *Hub
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a relay server around a fresh hub.
func NewServer(cfg *config.Config, log *zap.Logger) *Server {
	return &Server{
		cfg: cfg,
		hub: NewHub(),
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The relay is a public rendezvous point; peers connect
			// from anywhere.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Hub exposes the underlying hub, mainly for tests.
func (s *Server) Hub() *Hub { return s.hub }

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() *chi.Mux {
	limiter := middleware.NewRateLimiter(s.cfg.Relay.RateLimit, s.cfg.Relay.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(s.log))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RequestSizeLimiter(s.cfg.Relay.MaxMessageSize))

	// The websocket endpoint lives outside the timeout group; a synced
	// peer holds its connection open for the whole session.
	r.Get("/ws", s.handleWS)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.cfg.Relay.RequestTimeout))
		r.Use(limiter.Middleware())

		r.Get("/", s.handleIndex)
		r.Get("/room/{code}", s.handleShare)
		r.Get("/qr/{code}.png", s.handleQR)

		r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Get("/health/ready", s.handleReady)
	})

	return r
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s.log.Debug("peer connected", zap.String("remote", r.RemoteAddr))
	newSession(s.hub, conn, s.cfg.Relay.SendBuffer, s.log).run(s.cfg.Relay.MaxMessageSize)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Hub not ready"))
		return
	}
	keys, subs := s.hub.Stats()
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK keys=%d subscriptions=%d", keys, subs)
}

var sharePage = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Join room {{.Code}}</title>
</head>
<body>
<h1>Room {{.Code}}</h1>
<p>Scan to join, or run: <code>switchbomb join {{.Code}}</code></p>
<img src="/qr/{{.Code}}.png" alt="QR code for room {{.Code}}" width="256" height="256">
<p><a href="{{.ShareURL}}">{{.ShareURL}}</a></p>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "switchbomb relay. Connect peers to /ws, share rooms at /room/{code}.")
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	code := room.NormalizeCode(chi.URLParam(r, "code"))
	if code == "" {
		http.Error(w, "Room code required", http.StatusBadRequest)
		return
	}

	shareURL, err := room.ShareURL(s.publicBaseURL(r), code)
	if err != nil {
		s.log.Warn("building share url failed", zap.Error(err))
		http.Error(w, "Bad base URL", http.StatusInternalServerError)
		return
	}

	data := struct {
		Code     string
		ShareURL string
	}{
		Code:     code,
		ShareURL: shareURL,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := sharePage.Execute(w, data); err != nil {
		s.log.Warn("rendering share page failed", zap.Error(err))
	}
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	code := room.NormalizeCode(chi.URLParam(r, "code"))
	if code == "" {
		http.Error(w, "Room code required", http.StatusBadRequest)
		return
	}

	shareURL, err := room.ShareURL(s.publicBaseURL(r), code)
	if err != nil {
		s.log.Warn("building share url failed", zap.Error(err))
		http.Error(w, "Bad base URL", http.StatusInternalServerError)
		return
	}

	png, err := generateQRCode(shareURL)
	if err != nil {
		s.log.Warn("generating QR code failed", zap.String("room", code), zap.Error(err))
		http.Error(w, "QR generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

// publicBaseURL prefers the configured public URL and falls back to the
// request host, so share links work behind a reverse proxy.
func (s *Server) publicBaseURL(r *http.Request) string {
	if s.cfg.Relay.PublicURL != "" {
		return s.cfg.Relay.PublicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// generateQRCode renders url as a PNG
func generateQRCode(url string) ([]byte, error) {
	// Create QR code with medium error correction level
	qrc, err := qrcode.NewWith(url,
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium),
		qrcode.WithEncodingMode(qrcode.EncModeByte),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	// The writer only targets files, so render through a temp file.
	tmpFile := fmt.Sprintf("%s/qr_%d.png", os.TempDir(), time.Now().UnixNano())

	writer, err := standard.New(tmpFile,
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8), // 8 pixels per module
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create writer: %w", err)
	}

	if err := qrc.Save(writer); err != nil {
		return nil, fmt.Errorf("failed to save QR code: %w", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read QR code file: %w", err)
	}
	os.Remove(tmpFile)

	return data, nil
}
