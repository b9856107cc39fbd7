package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dkrasniqi/campus-assistant/internal/config"
	"github.com/dkrasniqi/campus-assistant/internal/core/ports"
	"github.com/dkrasniqi/campus-assistant/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	cfg       config.Config
	askUC     ports.QuestionAnswerer
	retriever ports.ContextRetriever
	reloader  ports.CorpusReloader
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	askUC ports.QuestionAnswerer,
	retriever ports.ContextRetriever,
	reloader ports.CorpusReloader,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:       cfg,
		askUC:     askUC,
		retriever: retriever,
		reloader:  reloader,
		metrics:   m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ask", rt.askQuestion)
	mux.HandleFunc("/v1/retrieve", rt.retrieveContext)
	mux.HandleFunc("/v1/corpus/reload", rt.reloadCorpus)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = requestValidationMiddleware(handler)
	if rt.cfg.APIMaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, 100*time.Millisecond)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) askQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	answer, err := rt.askUC.Ask(r.Context(), req.Question)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(serviceName, "/v1/ask", len(answer.Citations), 0, time.Since(start))
		for _, citation := range answer.Citations {
			rt.metrics.RecordCitationOrigin(serviceName, "/v1/ask", string(citation.Origin))
		}
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) retrieveContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query           string   `json:"query"`
		K               int      `json:"k"`
		SemanticWeight  *float64 `json:"semantic_weight"`
		MaxContextChars int      `json:"max_context_chars"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	k := req.K
	if k <= 0 {
		k = rt.cfg.RetrievalTopK
	}
	weight := rt.cfg.SemanticWeight
	if req.SemanticWeight != nil {
		weight = *req.SemanticWeight
	}
	maxChars := req.MaxContextChars
	if maxChars <= 0 {
		maxChars = rt.cfg.MaxContextChars
	}

	start := time.Now()
	result, err := rt.retriever.Retrieve(r.Context(), req.Query, k, weight, maxChars)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(serviceName, "/v1/retrieve", len(result.Citations), len(result.Context), time.Since(start))
		for _, citation := range result.Citations {
			rt.metrics.RecordCitationOrigin(serviceName, "/v1/retrieve", string(citation.Origin))
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) reloadCorpus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := rt.reloader.Reload(r.Context()); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
