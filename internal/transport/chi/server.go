// Package chi is a local HTTP bridge that lets a browser front end drive the
// discovery controller and the intake flow.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/felixrdev/grant-tagging-system/internal/domain"
	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/mode"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/query"
	logpkg "github.com/felixrdev/grant-tagging-system/internal/logger"
	"github.com/felixrdev/grant-tagging-system/internal/metrics"
	"github.com/felixrdev/grant-tagging-system/internal/usecase/discovery"
	healthuc "github.com/felixrdev/grant-tagging-system/internal/usecase/health"
	"github.com/felixrdev/grant-tagging-system/internal/usecase/intake"
)

const maxBodySize = 4 << 20

// ErrorCode is the machine-readable part of an error response.
type ErrorCode string

// Error codes returned by the bridge.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeInvalidInput       ErrorCode = "invalid_input"
	CodeBackendUnavailable ErrorCode = "backend_unavailable"
	CodeUnavailable        ErrorCode = "unavailable"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the bridge API.
type Server struct {
	discovery     Discovery
	intake        Intake
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP bridge server.
func NewServer(d Discovery, in Intake, h HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		discovery: d,
		intake:    in,
		health:    h,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUserInput, http.StatusBadRequest, CodeInvalidInput),
		sentinelHandler(domain.ErrTransport, http.StatusBadGateway, CodeBackendUnavailable),
		sentinelHandler(discovery.ErrClosed, http.StatusServiceUnavailable, CodeUnavailable),
	}
	return s
}

// Handler returns the router with the full middleware chain.
// An empty apiKeys list disables authentication.
func (s *Server) Handler(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Route("/api/discovery", func(r chi.Router) {
		r.Get("/", s.GetDiscovery)
		r.Put("/query", s.SetQuery)
		r.Post("/tags/{tag}", s.ToggleTag)
		r.Put("/mode", s.SetMode)
		r.Delete("/filters", s.ClearFilters)
		r.Post("/refresh", s.Refresh)
	})
	r.Route("/api/intake", func(r chi.Router) {
		r.Get("/sample", s.Sample)
		r.Post("/validate", s.Validate)
		r.Post("/send", s.Send)
		r.Get("/preview", s.Preview)
		r.Delete("/", s.ResetIntake)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// --- discovery ---

// stateResponse is the JSON view of discovery.State.
type stateResponse struct {
	RawText       string        `json:"raw_text"`
	SelectedTags  []string      `json:"selected_tags"`
	Mode          mode.Mode     `json:"mode"`
	Source        string        `json:"source"`
	Grants        []grant.Grant `json:"grants"`
	ResolvedTags  []string      `json:"resolved_tags"`
	AvailableTags []string      `json:"available_tags"`
	GrantsLoading bool          `json:"grants_loading"`
	TagsLoading   bool          `json:"tags_loading"`
	Searching     bool          `json:"searching"`
	HasFilters    bool          `json:"has_filters"`
	Empty         *emptyState   `json:"empty,omitempty"`
}

type emptyState struct {
	Message string `json:"message"`
	Hint    string `json:"hint"`
}

func stateToResponse(st discovery.State) stateResponse {
	resp := stateResponse{
		RawText:       st.RawText,
		SelectedTags:  nonNil(st.SelectedTags),
		Mode:          st.Mode,
		Source:        query.SourceName(st.Source),
		Grants:        st.DisplayGrants,
		ResolvedTags:  nonNil(st.ResolvedTags),
		AvailableTags: nonNil(st.AvailableTags),
		GrantsLoading: st.GrantsLoading,
		TagsLoading:   st.TagsLoading,
		Searching:     st.Searching,
		HasFilters:    st.HasFilters(),
	}
	if resp.Grants == nil {
		resp.Grants = []grant.Grant{}
	}
	if st.EmptyMessage != "" {
		resp.Empty = &emptyState{Message: st.EmptyMessage, Hint: st.EmptyHint}
	}
	return resp
}

// GetDiscovery handles GET /api/discovery.
func (s *Server) GetDiscovery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stateToResponse(s.discovery.State()))
}

// SetQuery handles PUT /api/discovery/query. The text is debounced, so the
// returned state may still reflect the previous query.
func (s *Server) SetQuery(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid q parameter")
		return
	}
	s.discovery.SetText(q)
	writeJSON(w, http.StatusAccepted, stateToResponse(s.discovery.State()))
}

// ToggleTag handles POST /api/discovery/tags/{tag}.
func (s *Server) ToggleTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	if tag == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "tag is required")
		return
	}
	s.discovery.ToggleTag(tag)
	writeJSON(w, http.StatusOK, stateToResponse(s.discovery.State()))
}

// SetMode handles PUT /api/discovery/mode.
func (s *Server) SetMode(w http.ResponseWriter, r *http.Request) {
	var m string
	if err := runtime.BindQueryParameter("form", true, true, "mode", r.URL.Query(), &m); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "mode parameter is required")
		return
	}
	if err := s.discovery.SetMode(mode.Mode(m)); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateToResponse(s.discovery.State()))
}

// ClearFilters handles DELETE /api/discovery/filters.
func (s *Server) ClearFilters(w http.ResponseWriter, _ *http.Request) {
	s.discovery.ClearFilters()
	writeJSON(w, http.StatusOK, stateToResponse(s.discovery.State()))
}

// Refresh handles POST /api/discovery/refresh.
func (s *Server) Refresh(w http.ResponseWriter, _ *http.Request) {
	s.discovery.Refresh()
	writeJSON(w, http.StatusAccepted, stateToResponse(s.discovery.State()))
}

// --- intake ---

type batchResponse struct {
	Grants  []grant.Grant  `json:"grants"`
	Sent    bool           `json:"sent"`
	Summary intake.Summary `json:"summary"`
}

func (s *Server) batch(grants []grant.Grant) batchResponse {
	if grants == nil {
		grants = []grant.Grant{}
	}
	return batchResponse{Grants: grants, Sent: s.intake.Sent(), Summary: intake.Summarize(grants)}
}

// Sample handles GET /api/intake/sample.
func (s *Server) Sample(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.intake.Sample())
}

// Validate handles POST /api/intake/validate. The body is the raw JSON the user typed.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	grants, err := s.intake.Validate(raw)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.batch(grants))
}

// Send handles POST /api/intake/send.
func (s *Server) Send(w http.ResponseWriter, r *http.Request) {
	grants, err := s.intake.Send(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.batch(grants))
}

// Preview handles GET /api/intake/preview.
func (s *Server) Preview(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.batch(s.intake.Preview()))
}

// ResetIntake handles DELETE /api/intake.
func (s *Server) ResetIntake(w http.ResponseWriter, _ *http.Request) {
	s.intake.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// --- health & metrics ---

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a message fit for the client. Typed errors carry
// user-facing text; anything else collapses to its sentinel.
func safeDomainMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var ue *domain.UserInputError
	if errors.As(err, &ue) {
		return ue.Error()
	}
	var te *domain.TransportError
	if errors.As(err, &te) {
		if te.StatusCode != 0 {
			return fmt.Sprintf("%s (status %d)", te.Message, te.StatusCode)
		}
		return te.Message
	}
	if errors.Is(err, discovery.ErrClosed) {
		return discovery.ErrClosed.Error()
	}
	return "internal error"
}

// sentinelHandler creates an error handler for a simple sentinel -> HTTP status mapping.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
