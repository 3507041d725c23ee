package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	pdfexport "github.com/exposuregraph/exposuregraph/internal/adapters/reporting"
	"github.com/exposuregraph/exposuregraph/internal/adapters/web/handlers"
	"github.com/exposuregraph/exposuregraph/internal/adapters/web/websocket"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
	"github.com/exposuregraph/exposuregraph/internal/core/services/agent"
	"github.com/exposuregraph/exposuregraph/internal/core/services/graph"
	"github.com/exposuregraph/exposuregraph/internal/core/services/reporting"
	"github.com/exposuregraph/exposuregraph/internal/core/services/scan"
	"github.com/exposuregraph/exposuregraph/internal/core/services/scoring"
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr        string
	AuthService ports.AuthService
	WSManager   *websocket.WSManager

	AuthHandler   *handlers.AuthHandler
	ScanHandler   *handlers.ScanHandler
	AssetHandler  *handlers.AssetHandler
	QueryHandler  *handlers.QueryHandler
	WhatIfHandler *handlers.WhatIfHandler
	ReportHandler *handlers.ReportHandler

	srv *http.Server
}

// Deps bundles everything the web server needs.
type Deps struct {
	Store      ports.GraphStore
	History    ports.ScanHistory
	Auth       ports.AuthService
	Pipeline   *scan.Pipeline
	Agent      *agent.QueryAgent
	Calculator *scoring.RiskCalculator
	Builder    *graph.Builder
	Overview   *reporting.OverviewService
	Generator  *reporting.ExposureReportGenerator
	WSManager  *websocket.WSManager
}

// NewServer creates a new web server.
func NewServer(addr string, deps Deps) *Server {
	return &Server{
		Addr:          addr,
		AuthService:   deps.Auth,
		WSManager:     deps.WSManager,
		AuthHandler:   handlers.NewAuthHandler(deps.Auth),
		ScanHandler:   handlers.NewScanHandler(deps.Pipeline, deps.History),
		AssetHandler:  handlers.NewAssetHandler(deps.Store, deps.Builder, deps.Overview),
		QueryHandler:  handlers.NewQueryHandler(deps.Agent),
		WhatIfHandler: handlers.NewWhatIfHandler(deps.Calculator),
		ReportHandler: handlers.NewReportHandler(deps.Generator, pdfexport.NewPDFExporter()),
	}
}

// Run starts the server and the websocket broadcaster, blocking until
// ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.WSManager.Start(ctx)

	handler := SetupRoutes(s)

	// Instrument with OpenTelemetry
	instrumentedHandler := otelhttp.NewHandler(handler, "exposuregraph-server")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumentedHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown implementation
	go func() {
		<-ctx.Done()
		log.Println("Web Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web Server shutdown error: %v", err)
		}
	}()

	log.Printf("Web server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
