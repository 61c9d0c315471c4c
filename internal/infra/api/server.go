package api

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-dating-onboarding/internal/domain/ports/adapter"
	"telegram-dating-onboarding/internal/domain/registration"
	"telegram-dating-onboarding/internal/infra/logging"
	"telegram-dating-onboarding/internal/usecase"
)

// StateVerifier resolves an OAuth state back to the Telegram user it was issued for.
type StateVerifier interface {
	Verify(state string) (int64, error)
}

// FederatedNotifier tells the user in Telegram that their identity was linked.
type FederatedNotifier interface {
	NotifyFederated(ctx context.Context, tgID int64, d *registration.Draft) error
}

// Server is the HTTP surface next to the bot: health, metrics and the
// Google sign-in round trip.
type Server struct {
	reg         usecase.RegistrationUseCase
	users       usecase.UserUseCase
	conn        adapter.ConnectivityObserver
	google      adapter.IdentityProvider
	states      StateVerifier
	notifier    FederatedNotifier
	botUsername string
	timeout     time.Duration
	log         *zerolog.Logger
}

func NewServer(
	reg usecase.RegistrationUseCase,
	users usecase.UserUseCase,
	conn adapter.ConnectivityObserver,
	botUsername string,
	timeout time.Duration,
	logger *zerolog.Logger,
) *Server {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	l := logger.With().Str("component", "http").Logger()
	return &Server{
		reg:         reg,
		users:       users,
		conn:        conn,
		botUsername: botUsername,
		timeout:     timeout,
		log:         &l,
	}
}

// WithGoogle mounts the /auth/google routes.
func (s *Server) WithGoogle(provider adapter.IdentityProvider, states StateVerifier, notifier FederatedNotifier) *Server {
	s.google = provider
	s.states = states
	s.notifier = notifier
	return s
}

// Router builds the chi router with the middleware stack applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.timeout))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if s.google != nil && s.states != nil {
		r.Route("/auth/google", func(r chi.Router) {
			r.Get("/login", s.handleGoogleLogin)
			r.Get("/callback", s.handleGoogleCallback)
		})
	}
	return r
}

type healthResponse struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Users     *int   `json:"users,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Connected: true}
	if s.conn != nil {
		resp.Connected = s.conn.Connected()
	}
	code := http.StatusOK
	if !resp.Connected {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	} else if s.users != nil {
		if n, err := s.users.Count(r.Context()); err == nil {
			resp.Users = &n
		}
	}
	writeJSON(w, code, resp)
}

// handleGoogleLogin checks the state before sending the browser to Google, so
// stale or forged links fail here instead of after consent.
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if _, err := s.states.Verify(state); err != nil {
		s.renderHTML(w, http.StatusBadRequest, false, "This sign-in link is invalid or has expired. Send /google to the bot for a new one.")
		return
	}
	http.Redirect(w, r, s.google.LoginURL(state), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logging.With(ctx, s.log)
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		l.Info().Str("error", e).Msg("google sign-in declined")
		s.renderHTML(w, http.StatusBadRequest, false, "Google sign-in was cancelled.")
		return
	}
	tgID, err := s.states.Verify(q.Get("state"))
	if err != nil {
		s.renderHTML(w, http.StatusBadRequest, false, "This sign-in link is invalid or has expired. Send /google to the bot for a new one.")
		return
	}
	code := q.Get("code")
	if code == "" {
		s.renderHTML(w, http.StatusBadRequest, false, "Missing authorization code.")
		return
	}

	identity, err := s.google.Exchange(ctx, code)
	if err != nil {
		l.Warn().Err(err).Int64("tg_id", tgID).Msg("google code exchange failed")
		s.renderHTML(w, http.StatusBadGateway, false, "Could not reach Google. Please try again.")
		return
	}

	d, err := s.reg.AdoptFederatedIdentity(ctx, tgID, *identity)
	if err != nil {
		l.Warn().Err(err).Int64("tg_id", tgID).Msg("adopting federated identity failed")
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		s.renderHTML(w, status, false, "Your Google account could not be linked. Please try again.")
		return
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyFederated(ctx, tgID, d); err != nil {
			l.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to notify user in telegram")
		}
	}
	s.renderHTML(w, http.StatusOK, true, "Your Google account is linked. Return to Telegram to finish your profile.")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

var page = template.Must(template.New("auth").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Sign-in {{if .OK}}complete{{else}}failed{{end}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .fail{color:#b00020}
.btn{display:inline-block;margin-top:16px;padding:10px 16px;border-radius:8px;border:1px solid #888;text-decoration:none}
</style>
</head>
<body>
<div class="card">
  <h2 class="{{if .OK}}ok{{else}}fail{{end}}">{{if .OK}}✅ Signed in{{else}}⚠️ Sign-in failed{{end}}</h2>
  <p>{{.Msg}}</p>
  {{if .BotUsername}}
    <a class="btn" href="https://t.me/{{.BotUsername}}">Back to Telegram</a>
  {{end}}
</div>
</body>
</html>`))

func (s *Server) renderHTML(w http.ResponseWriter, code int, ok bool, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_ = page.Execute(w, struct {
		OK          bool
		Msg         string
		BotUsername string
	}{
		OK:          ok,
		Msg:         msg,
		BotUsername: s.botUsername,
	})
}
