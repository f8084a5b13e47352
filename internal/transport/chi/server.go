// Package chi exposes the search service over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/request"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/moviesearch/internal/logger"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
	healthuc "github.com/kailas-cloud/moviesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/moviesearch/internal/usecase/search"
)

// Client-facing error messages. Details stay in the logs.
const (
	msgRequired    = "Query and mode are required."
	msgInvalidMode = "Invalid search mode."
	msgBadBody     = "Invalid request body."
	msgInternal    = "An error occurred while searching."
)

const (
	headerEmbeddingTokens = "X-Embedding-Tokens"
	maxBodyBytes          = 1 << 20
)

// searcher is the consumer interface for the query dispatcher (ISP).
type searcher interface {
	Search(ctx context.Context, req *request.Request) (searchuc.Response, error)
}

// healthChecker is the consumer interface for the health service (ISP).
type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Options configures the router.
type Options struct {
	APIKeys     []string
	CORSOrigins []string
}

// Server serves the search API.
type Server struct {
	search        searcher
	health        healthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search searcher, health healthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
	}
	return s
}

// Router builds the chi router with the middleware chain.
func (s *Server) Router(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(corsMiddleware(opts.CORSOrigins))
	r.Use(BearerAuthMiddleware(opts.APIKeys))
	r.Use(metrics.Middleware())

	r.Post("/search", s.Search)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})
	return r
}

// searchRequest is the POST /search body.
type searchRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
	Limit *int   `json:"limit,omitempty"`
}

// searchResultItem is one ranked movie in the response.
type searchResultItem struct {
	ID            string   `json:"_id"`
	Title         string   `json:"title"`
	Plot          string   `json:"plot"`
	FullPlot      string   `json:"fullplot"`
	Score         *float64 `json:"score,omitempty"`
	Similarity    *float64 `json:"similarity,omitempty"`
	WeightedScore float64  `json:"weightedScore"`
}

// searchResponse is the POST /search response.
type searchResponse struct {
	Results    []searchResultItem `json:"results"`
	Total      int                `json:"total"`
	Answer     *string            `json:"answer"`
	ServerTime string             `json:"serverTime"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		logpkg.FromContext(r.Context()).Debug("Malformed search body", zap.Error(err))
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	req, msg := searchRequestFromBody(body)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ctx = logpkg.With(ctx, zap.String("mode", req.Mode().String()), zap.Int("limit", req.Limit()))
	resp, err := s.search.Search(ctx, &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponseFrom(resp))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// Degraded still serves lexical search, so only an unreachable store fails the probe.
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// searchRequestFromBody validates the body; a non-empty message is the 400 response.
func searchRequestFromBody(body searchRequest) (request.Request, string) {
	if strings.TrimSpace(body.Query) == "" || body.Mode == "" {
		return request.Request{}, msgRequired
	}
	m, err := mode.Parse(body.Mode)
	if err != nil {
		return request.Request{}, msgInvalidMode
	}

	limit := 0
	if body.Limit != nil {
		if *body.Limit <= 0 || *body.Limit > request.MaxLimit {
			return request.Request{}, fmt.Sprintf("Limit must be between 1 and %d.", request.MaxLimit)
		}
		limit = *body.Limit
	}

	req, err := request.New(body.Query, m, limit)
	if err != nil {
		return request.Request{}, validationMessage(err)
	}
	return req, ""
}

func searchResponseFrom(resp searchuc.Response) searchResponse {
	items := make([]searchResultItem, len(resp.Results))
	for i := range resp.Results {
		items[i] = searchResultToItem(&resp.Results[i])
	}
	return searchResponse{
		Results:    items,
		Total:      len(items),
		Answer:     resp.Answer,
		ServerTime: formatServerTime(resp.Elapsed),
	}
}

func searchResultToItem(r *result.Ranked) searchResultItem {
	m := r.Movie()
	return searchResultItem{
		ID:            m.ID(),
		Title:         m.Title(),
		Plot:          m.Plot(),
		FullPlot:      m.FullPlot(),
		Score:         r.LexicalScore(),
		Similarity:    r.VectorScore(),
		WeightedScore: r.CombinedScore(),
	}
}

// formatServerTime renders elapsed time as milliseconds with two decimals, e.g. "12.34ms".
func formatServerTime(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 2, 64) + "ms"
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if total, used := usage.Snapshot(); used {
		w.Header().Set(headerEmbeddingTokens, strconv.Itoa(total))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// validationMessage returns a client-safe message for a validation error:
// the text after the sentinel prefix, capitalized and terminated like the fixed messages.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, domain.ErrValidation.Error()+": "); i >= 0 {
		msg = msg[i+len(domain.ErrValidation.Error())+2:]
	}
	if msg == "" {
		return msgRequired
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	writeError(w, http.StatusBadRequest, validationMessage(err))
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("search rejected", zap.Error(err))
			return
		}
	}
	log.Error("search failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgInternal)
}
