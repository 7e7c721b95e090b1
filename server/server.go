// Package server exposes the analyzer over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keift/chessanalyzer/analyzer"
	"github.com/keift/chessanalyzer/config"
	"github.com/keift/chessanalyzer/search"
)

const (
	msgInvalidFEN       = "Invalid FEN"
	msgNotFound         = "Not found"
	msgMethodNotAllowed = "Method not allowed"
	msgTooManyRequests  = "Too many requests"
	msgUnavailable      = "Service unavailable"
	msgInternal         = "Internal server error"
)

type Field struct {
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`
}

// EndpointConfig describes a route. It is also what GET / lists.
type EndpointConfig struct {
	Path       string           `json:"path"`
	Method     string           `json:"method"`
	Category   string           `json:"category"`
	Limit      int              `json:"limit"`
	Cooldown   int64            `json:"cooldown"`
	Fields     map[string]Field `json:"fields"`
	Deprecated bool             `json:"deprecated"`
	Disabled   bool             `json:"disabled"`
}

type handlerFunc func(ctx context.Context, logger zerolog.Logger, r *http.Request) (int, any)

type endpoint struct {
	config EndpointConfig
	id     string
	handle handlerFunc
}

type Server struct {
	analyzer *analyzer.Analyzer
	config   *config.Config
	limiter  *RateLimiter
	pool     *Pool
	cors     *cors.Cors

	analyzeFn func(ctx context.Context, fen string, opts analyzer.Options) (*analyzer.Result, error)

	endpoints map[string]*endpoint
}

func New(an *analyzer.Analyzer) *Server {
	cfg := an.Config()
	s := &Server{
		analyzer:  an,
		config:    cfg,
		limiter:   NewRateLimiter(),
		pool:      NewPool(cfg.GetInt(config.ConfigWorkers)),
		cors:      cors.AllowAll(),
		endpoints: make(map[string]*endpoint),
	}
	s.analyzeFn = an.Analyze
	s.register(EndpointConfig{
		Path:     "/analyze",
		Method:   http.MethodGet,
		Category: "Chess",
		Limit:    cfg.GetInt(config.ConfigRateLimit),
		Cooldown: cfg.GetDuration(config.ConfigRateCooldown).Milliseconds(),
		Fields: map[string]Field{
			"fen":   {Type: "string", Required: true},
			"depth": {Type: "integer", Min: 1, Max: search.MaxDepth},
		},
	}, s.analyze)
	return s
}

func (s *Server) register(cfg EndpointConfig, h handlerFunc) {
	s.endpoints[cfg.Path] = &endpoint{
		config: cfg,
		id:     endpointID(cfg.Method, cfg.Path),
		handle: h,
	}
}

// Handler is the server with CORS applied, answering preflight requests
// from any origin.
func (s *Server) Handler() http.Handler {
	return s.cors.Handler(s)
}

// Run serves queued searches until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.pool.Run(ctx)
}

func (s *Server) Endpoints() []EndpointConfig {
	cfgs := make([]EndpointConfig, 0, len(s.endpoints))
	for _, ep := range s.endpoints {
		cfgs = append(cfgs, ep.config)
	}
	sort.Slice(cfgs, func(i, j int) bool { return cfgs[i].Path < cfgs[j].Path })
	return cfgs
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := uuid.NewString()
	w.Header().Set("X-Request-Id", reqID)
	ip := clientIP(r)
	logger := log.With().Str("request-id", reqID).Str("ip", ip).
		Str("method", r.Method).Str("path", r.URL.Path).Logger()

	if r.Method == http.MethodGet && r.URL.Path == openAPIPath {
		writeJSON(w, http.StatusOK, s.openAPI())
		logger.Debug().Msg("openapi-served")
		return
	}
	code, result := s.route(r, ip, logger)
	writeEnvelope(w, code, result, start)

	ev := logger.Info()
	if code >= 500 {
		ev = logger.Error()
	}
	ev.Int("status", code).Dur("latency", time.Since(start)).Msg("request-served")
}

func (s *Server) route(r *http.Request, ip string, logger zerolog.Logger) (code int, result any) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	id := endpointID(r.Method, r.URL.Path)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Interface("panic", rec).Msg("handler-panicked")
			code, result = http.StatusInternalServerError, messageResult(id, msgInternal)
		}
	}()

	if path == "" && r.Method == http.MethodGet {
		return http.StatusOK, map[string]any{"endpoints": s.Endpoints()}
	}
	ep, ok := s.endpoints[path]
	if !ok {
		return http.StatusNotFound, messageResult(id, msgNotFound)
	}
	if r.Method != ep.config.Method || ep.config.Disabled {
		return http.StatusMethodNotAllowed, messageResult(id, msgMethodNotAllowed)
	}
	cooldown := time.Duration(ep.config.Cooldown) * time.Millisecond
	if !s.limiter.Allow(ep.id+":"+ip, ep.config.Limit, cooldown) {
		return http.StatusTooManyRequests, messageResult(ep.id, msgTooManyRequests)
	}
	code, result = ep.handle(r.Context(), logger, r)
	if msg, ok := result.(string); ok {
		result = messageResult(ep.id, msg)
	}
	return code, result
}

// analyze handles GET /analyze?fen=...&depth=...
func (s *Server) analyze(ctx context.Context, logger zerolog.Logger, r *http.Request) (int, any) {
	q := r.URL.Query()
	fen := strings.TrimSpace(q.Get("fen"))
	if fen == "" {
		return http.StatusBadRequest, "fen is required"
	}
	opts := analyzer.Options{ThinkingTime: s.config.GetDuration(config.ConfigHTTPThinkingTime)}
	if d := q.Get("depth"); d != "" {
		depth, err := strconv.Atoi(d)
		if err != nil || depth < 1 || depth > search.MaxDepth {
			return http.StatusBadRequest, fmt.Sprintf("depth must be an integer between 1 and %d", search.MaxDepth)
		}
		opts.Depth = depth
	}
	logger = logger.With().Uint64("fen-hash", xxhash.Sum64String(fen)).Logger()

	var res *analyzer.Result
	var err error
	done := make(chan struct{})
	if subErr := s.pool.Submit(ctx, func() {
		defer close(done)
		// the job runs on a pool worker, out of reach of route's recover
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error().Interface("panic", rec).Str("fen", fen).Msg("analyze-panicked")
				err = fmt.Errorf("analyze panicked: %v", rec)
			}
		}()
		res, err = s.analyzeFn(ctx, fen, opts)
	}); subErr != nil {
		logger.Warn().Err(subErr).Msg("no-worker-before-cancel")
		return http.StatusServiceUnavailable, msgUnavailable
	}
	<-done

	switch {
	case errors.Is(err, analyzer.ErrInvalidPosition):
		logger.Debug().Err(err).Msg("invalid-position")
		return http.StatusBadRequest, msgInvalidFEN
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, msgUnavailable
	case err != nil:
		logger.Err(err).Msg("analyze-failed")
		return http.StatusInternalServerError, msgInternal
	}
	logger.Debug().Int("depth", res.Depth).Uint64("nodes", res.Nodes).
		Int64("elapsed-ms", res.ElapsedMs).Msg("analyzed")
	return http.StatusOK, res
}
