package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/exposuregraph/exposuregraph/internal/adapters/web/middleware"
	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

// SetupRoutes wires every HTTP endpoint with its middleware chain.
func SetupRoutes(s *Server) http.Handler {
	root := http.NewServeMux()

	// Rate limiters
	loginLimiter := middleware.NewRateLimiter(5, 1*time.Minute)  // 5 login attempts per minute
	scanLimiter := middleware.NewRateLimiter(10, 1*time.Minute)  // 10 scan launches per minute
	queryLimiter := middleware.NewRateLimiter(30, 1*time.Minute) // 30 agent questions per minute

	// Public API (with rate limiting)
	root.Handle("/api/login", middleware.RateLimitMiddleware(loginLimiter)(http.HandlerFunc(s.AuthHandler.HandleLogin)))
	root.HandleFunc("/api/logout", s.AuthHandler.HandleLogout)

	// Middleware helpers
	auth := middleware.AuthMiddleware(s.AuthService)
	protect := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}
	requireAnalyst := middleware.RoleMiddleware(domain.RoleAnalyst)
	protectAnalyst := func(h http.HandlerFunc) http.Handler {
		return auth(requireAnalyst(h))
	}

	// WebSocket endpoint (protected)
	root.Handle("/ws", protect(s.WSManager.HandleWebSocket))

	// Session
	root.Handle("/api/me", protect(s.AuthHandler.HandleMe))

	// Scanning (analyst and above)
	root.Handle("/api/scan", middleware.RateLimitMiddleware(scanLimiter)(protectAnalyst(s.ScanHandler.HandleStartScan)))
	root.Handle("/api/scans", protect(s.ScanHandler.HandleListRuns))
	root.Handle("/api/rescore", protectAnalyst(s.ScanHandler.HandleRescore))

	// Graph browsing
	root.Handle("/api/graph", protect(s.AssetHandler.HandleGraph))
	root.Handle("/api/domains", protect(s.AssetHandler.HandleListDomains))
	root.Handle("/api/subdomains", protect(s.AssetHandler.HandleListSubdomains))
	root.Handle("/api/risks/top", protect(s.AssetHandler.HandleTopRisks))
	root.Handle("/api/stats", protect(s.AssetHandler.HandleStats))

	// Query agent and what-if scoring
	root.Handle("/api/query", middleware.RateLimitMiddleware(queryLimiter)(protect(s.QueryHandler.HandleQuery)))
	root.Handle("/api/whatif", protect(s.WhatIfHandler.HandleWhatIf))

	// Reports live on a mux router for the {format} path variable
	// (analyst and above).
	reports := mux.NewRouter()
	s.ReportHandler.Routes(reports)
	root.Handle("/api/reports/", auth(requireAnalyst(reports)))

	// Metrics endpoint (protected - requires authentication)
	root.Handle("/metrics", protect(func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	}))

	return root
}
