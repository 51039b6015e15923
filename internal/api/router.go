package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/swing/backend/internal/api/handlers"
	"github.com/wonny/swing/backend/internal/api/stream"
	"github.com/wonny/swing/backend/pkg/database"
	"github.com/wonny/swing/backend/pkg/logger"
)

// ServiceName is reported by the health endpoint
const ServiceName = "swing-api"

// Handlers groups the endpoint handlers. A nil handler leaves its routes unregistered.
type Handlers struct {
	Ranking *handlers.RankingHandler
	Stock   *handlers.StockHandler
	Data    *handlers.DataHandler
	Stream  *stream.Hub

	// Database is probed by /health when set
	Database HealthProbe
}

// HealthProbe reports storage health
type HealthProbe interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(h.Ranking != nil, h.Database)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Ranking endpoints
	if h.Ranking != nil {
		api.HandleFunc("/top-stocks", h.Ranking.GetTopStocks).Methods("GET")
		api.HandleFunc("/rankings/latest", h.Ranking.GetLatestRun).Methods("GET")
		api.HandleFunc("/stock/{ticker}/rankings", h.Ranking.GetTickerHistory).Methods("GET")
	}

	if h.Stock != nil {
		api.HandleFunc("/stock/{ticker}", h.Stock.GetAnalysis).Methods("GET")
	}

	// Data endpoints
	if h.Data != nil {
		api.HandleFunc("/data/universe", h.Data.GetUniverse).Methods("GET")
		api.HandleFunc("/data/quality", h.Data.GetQuality).Methods("GET")
		api.HandleFunc("/data/collect", h.Data.Collect).Methods("POST")
	}

	if h.Stream != nil {
		r.HandleFunc("/ws/rankings", h.Stream.ServeWS).Methods("GET")
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"error":   "Not found",
		})
	})

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status.
// An unhealthy database degrades the status; the code stays 200.
func healthCheckHandler(rankerReady bool, db HealthProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":       "ok",
			"service":      ServiceName,
			"ranker_ready": rankerReady,
			"timestamp":    time.Now(),
		}
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			status, err := db.HealthCheck(ctx)
			if err != nil {
				body["status"] = "degraded"
			}
			body["database"] = status
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
						"success": false,
						"error":   "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
