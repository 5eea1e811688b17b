package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mllorens/captionpal/internal/answer"
	"github.com/mllorens/captionpal/internal/authtoken"
	"github.com/mllorens/captionpal/internal/config"
	"github.com/mllorens/captionpal/internal/observability"
	"github.com/mllorens/captionpal/internal/protocol"
	"github.com/mllorens/captionpal/internal/ratelimit"
	"github.com/mllorens/captionpal/internal/safety"
)

const (
	familyKeyHeader    = "X-Family-Key"
	installTokenHeader = "X-Install-Token"

	fallbackAnswer = "I'm not sure."
)

// Server is the answer gateway. Every /answer request walks the same chain:
// family key, install token, rate limit, body validation, safety, generation.
// The first failing check short-circuits; safety blocks are still 200s.
type Server struct {
	cfg     config.Config
	limiter *ratelimit.Limiter
	adapter answer.Adapter
	metrics *observability.Metrics
	now     func() time.Time
}

func New(cfg config.Config, limiter *ratelimit.Limiter, adapter answer.Adapter, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		limiter: limiter,
		adapter: adapter,
		metrics: metrics,
		now:     time.Now,
	}
}

// SetClock overrides the server clock. Tests only.
func (s *Server) SetClock(now func() time.Time) { s.now = now }

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", installTokenHeader, familyKeyHeader},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Post("/install", s.handleInstall)
	r.Post("/answer", s.handleAnswer)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	if !s.familyKeyOK(r) {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if s.cfg.AuthTokenSecret == "" {
		respondError(w, http.StatusInternalServerError, "Missing AUTH_TOKEN_SECRET")
		return
	}

	tok, err := authtoken.Issue(s.cfg.AuthTokenSecret, s.now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	s.metrics.TokensIssued.Inc()
	respondJSON(w, http.StatusOK, protocol.InstallResponse{
		Token:     tok.Token,
		IssuedAt:  tok.IssuedAt,
		ExpiresAt: tok.ExpiresAt,
	})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	now := s.now()

	if !s.familyKeyOK(r) {
		s.metrics.AnswerRequests.WithLabelValues("unauthorized").Inc()
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	token := bearerToken(r)
	if s.cfg.AuthTokenSecret == "" || token == "" {
		s.metrics.AnswerRequests.WithLabelValues("unauthorized").Inc()
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if _, err := authtoken.Verify(token, s.cfg.AuthTokenSecret, now); err != nil {
		s.metrics.AnswerRequests.WithLabelValues("unauthorized").Inc()
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rate := s.limiter.Check(clientKey(r, token), now)
	s.metrics.RateLimitKeys.Set(float64(s.limiter.Size()))
	// Present on every authorized response so clients can self-throttle.
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rate.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(rate.ResetAt, 10))
	if !rate.Allowed {
		s.metrics.AnswerRequests.WithLabelValues("rate_limited").Inc()
		respondError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	var req protocol.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.AnswerRequests.WithLabelValues("bad_request").Inc()
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		s.metrics.AnswerRequests.WithLabelValues("bad_request").Inc()
		respondError(w, http.StatusBadRequest, "Missing question")
		return
	}

	if verdict := safety.Evaluate(question); verdict.Blocked {
		s.metrics.AnswerRequests.WithLabelValues("blocked").Inc()
		s.metrics.SafetyBlocks.WithLabelValues(verdict.Reason).Inc()
		respondJSON(w, http.StatusOK, protocol.AnswerResponse{
			Answer:  fallbackAnswer,
			Blocked: true,
			Reason:  verdict.Reason,
		})
		return
	}

	start := s.now()
	text, err := s.adapter.Generate(r.Context(), answer.Request{
		Question: question,
		Context:  req.Context,
	})
	s.metrics.ObserveUpstreamLatency(s.now().Sub(start))
	if err != nil {
		s.metrics.AnswerRequests.WithLabelValues("upstream_error").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to fetch answer")
		return
	}
	if strings.TrimSpace(text) == "" {
		text = fallbackAnswer
	}

	s.metrics.AnswerRequests.WithLabelValues("ok").Inc()
	respondJSON(w, http.StatusOK, protocol.AnswerResponse{Answer: text})
}

func (s *Server) familyKeyOK(r *http.Request) bool {
	if s.cfg.FamilyAccessKey == "" {
		return true
	}
	return strings.TrimSpace(r.Header.Get(familyKeyHeader)) == s.cfg.FamilyAccessKey
}

// bearerToken extracts the install token from the Authorization header, with
// X-Install-Token as a fallback for clients that cannot set Authorization.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get(installTokenHeader))
}

// clientKey picks the rate-limit identity: token when present, else the
// caller address (first X-Forwarded-For hop when proxied).
func clientKey(r *http.Request, token string) string {
	if token != "" {
		return "token:" + token
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return "ip:" + ip
		}
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	if host == "" {
		host = "unknown"
	}
	return "ip:" + host
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, protocol.ErrorResponse{Error: message})
}
