package server

import (
	"net/http"
	"strconv"
	"strings"

	"articlehub/internal/metrics"
	"articlehub/internal/ratelimit"
	"articlehub/internal/util"
	"articlehub/pkg/auth"
	"articlehub/services/api/internal/app"
)

// TokenVerifier validates bearer tokens on article writes.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	Auth                 *app.AuthService
	Articles             *app.ArticleService
	Tokens               TokenVerifier
	RequireAuthForWrites bool
	MaxUploadBytes       int64
	// UploadDir holds spooled multipart images; empty means os.TempDir().
	UploadDir          string
	SignupLimiter      ratelimit.Limiter
	LoginLimiter       ratelimit.Limiter
	TrustedProxies     *util.TrustedProxies
	CORSAllowedOrigins []string
	Metrics            *metrics.Metrics
}

// Server exposes the article and auth HTTP API.
type Server struct {
	auth           *app.AuthService
	articles       *app.ArticleService
	tokens         TokenVerifier
	requireAuth    bool
	maxUploadBytes int64
	uploadDir      string
	signupLimiter  ratelimit.Limiter
	loginLimiter   ratelimit.Limiter
	trustedProxies *util.TrustedProxies
	corsOrigins    []string
	metrics        *metrics.Metrics
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		auth:           cfg.Auth,
		articles:       cfg.Articles,
		tokens:         cfg.Tokens,
		requireAuth:    cfg.RequireAuthForWrites,
		maxUploadBytes: cfg.MaxUploadBytes,
		uploadDir:      cfg.UploadDir,
		signupLimiter:  cfg.SignupLimiter,
		loginLimiter:   cfg.LoginLimiter,
		trustedProxies: cfg.TrustedProxies,
		corsOrigins:    cfg.CORSAllowedOrigins,
		metrics:        cfg.Metrics,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with the standard middleware chain.
func (s *Server) Router() http.Handler {
	return util.Chain(s.mux,
		util.WithRequestID,
		util.WithRequestLog,
		util.WithSecurityHeaders,
		util.WithCORS(s.corsOrigins),
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// articles
	s.handle("GET /articles", http.HandlerFunc(s.handleListArticles))
	s.handle("GET /articles/{id}", http.HandlerFunc(s.handleGetArticle))
	s.handle("POST /articles", s.writeGuard(s.handleCreateArticle))
	s.handle("PUT /articles/{id}", s.writeGuard(s.handleUpdateArticle))
	s.handle("DELETE /articles/{id}", s.authenticated(s.handleDeleteArticle))

	// auth
	s.handle("POST /auth/register", s.rateLimited("/auth/register", s.signupLimiter, s.handleRegister))
	s.handle("POST /auth/login", s.rateLimited("/auth/login", s.loginLimiter, s.handleLogin))
}

// handle registers h with request metrics labelled by the route pattern.
func (s *Server) handle(pattern string, h http.Handler) {
	route := pattern
	if _, path, ok := strings.Cut(pattern, " "); ok {
		route = path
	}
	s.mux.Handle(pattern, s.metrics.Instrument(route, h))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeGuard authenticates and caps the body size of multipart writes.
func (s *Server) writeGuard(next http.HandlerFunc) http.Handler {
	return s.authenticated(util.WithMaxBody(s.maxUploadBytes)(next).ServeHTTP)
}

func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	if !s.requireAuth {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		claims, err := s.tokens.Verify(token)
		if err != nil {
			util.LoggerFromContext(r.Context()).Warn("rejected bearer token", "path", r.URL.Path, "err", err)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		logger := util.LoggerFromContext(r.Context()).With("user_id", claims.UserID)
		next(w, r.WithContext(util.ContextWithLogger(r.Context(), logger)))
	})
}

func (s *Server) rateLimited(route string, limiter ratelimit.Limiter, next http.HandlerFunc) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := route + ":" + util.ClientIP(r, s.trustedProxies)
		decision := limiter.Allow(r.Context(), key)
		if !decision.Allowed {
			s.metrics.RateLimited(route)
			if secs := int(decision.RetryAfter.Seconds()); secs > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}
