package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/elys-network/feelab/internal/logger"
	"github.com/elys-network/feelab/internal/state"
)

// WebServer serves stored match results and metrics
type WebServer struct {
	router     *mux.Router
	port       string
	configName string
	metrics    *Metrics
	logger     zerolog.Logger
	startedAt  time.Time
}

// NewWebServer creates a new web server instance. configName selects the parameter set shown by
// /api/parameters; metrics may be nil, in which case a fresh registry is used.
func NewWebServer(port, configName string, metrics *Metrics) *WebServer {
	if port == "" {
		port = "8080"
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	server := &WebServer{
		router:     mux.NewRouter(),
		port:       port,
		configName: configName,
		metrics:    metrics,
		logger:     logger.GetForComponent("web_server"),
		startedAt:  time.Now(),
	}

	server.setupRoutes()
	return server
}

// Handler exposes the router, mainly for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	ws.router.Handle("/metrics", promhttp.HandlerFor(ws.metrics.Registry(), promhttp.HandlerOpts{})).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/runs", ws.handleGetRuns).Methods("GET")
	api.HandleFunc("/runs/latest", ws.handleGetLatestRun).Methods("GET")
	api.HandleFunc("/runs/{id}", ws.handleGetRun).Methods("GET")
	api.HandleFunc("/parameters", ws.handleGetParameters).Methods("GET")
	api.HandleFunc("/performance", ws.handleGetPerformance).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	ws.logger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth reports process and database health
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := state.TestDBConnection() == nil

	var runInfo map[string]interface{}
	latest, err := state.GetLatestRun()
	if err == nil {
		runInfo = map[string]interface{}{
			"last_run_id":   latest.RunID,
			"last_run_time": latest.FinishedAt,
			"last_strategy": latest.StrategyName,
		}
	} else {
		runInfo = map[string]interface{}{
			"last_run_id":   nil,
			"last_run_time": nil,
			"last_strategy": nil,
		}
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if !dbHealthy {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
			"uptime_seconds":   int64(time.Since(ws.startedAt).Seconds()),
		},
		"component": map[string]interface{}{
			"name":    "feelab",
			"version": "1.0.0",
		},
		"feelab_status": map[string]interface{}{
			"database_healthy": dbHealthy,
			"run_info":         runInfo,
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetRuns returns the most recent runs
func (ws *WebServer) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	runs, err := state.GetRecentRuns(limit)
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to get recent runs")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	response := map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
		"limit": limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetRun returns a specific run by its run id
func (ws *WebServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	run, err := state.GetRun(id)
	if err != nil {
		if errors.Is(err, state.ErrRunNotFound) {
			ws.writeErrorResponse(w, http.StatusNotFound, "Run not found")
			return
		}
		ws.logger.Error().Err(err).Str("runId", id).Msg("Failed to get run")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, run)
}

// handleGetLatestRun returns the most recent run
func (ws *WebServer) handleGetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := state.GetLatestRun()
	if err != nil {
		if errors.Is(err, state.ErrRunNotFound) {
			ws.writeErrorResponse(w, http.StatusNotFound, "No runs found")
			return
		}
		ws.logger.Error().Err(err).Msg("Failed to get latest run")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve latest run")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, run)
}

// handleGetParameters returns the active controller parameters
func (ws *WebServer) handleGetParameters(w http.ResponseWriter, r *http.Request) {
	stored, err := state.LoadActiveControllerParameters(ws.configName)
	if err != nil {
		if errors.Is(err, state.ErrNoActiveParameters) {
			ws.writeErrorResponse(w, http.StatusNotFound, "No active controller parameters")
			return
		}
		ws.logger.Error().Err(err).Msg("Failed to get controller parameters")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve controller parameters")
		return
	}

	response := map[string]interface{}{
		"parameters": stored,
		"timestamp":  time.Now().UTC(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetPerformance returns aggregated results
func (ws *WebServer) handleGetPerformance(w http.ResponseWriter, r *http.Request) {
	overview, err := state.GetPerformanceOverview()
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to get performance overview")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve performance overview")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, overview)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		ws.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		ws.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
