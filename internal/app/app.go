package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/exposuregraph/exposuregraph/internal/adapters/collectors"
	"github.com/exposuregraph/exposuregraph/internal/adapters/history"
	"github.com/exposuregraph/exposuregraph/internal/adapters/llm"
	"github.com/exposuregraph/exposuregraph/internal/adapters/storage"
	webserver "github.com/exposuregraph/exposuregraph/internal/adapters/web/server"
	"github.com/exposuregraph/exposuregraph/internal/adapters/web/websocket"
	"github.com/exposuregraph/exposuregraph/internal/config"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
	"github.com/exposuregraph/exposuregraph/internal/core/services/agent"
	"github.com/exposuregraph/exposuregraph/internal/core/services/auth"
	"github.com/exposuregraph/exposuregraph/internal/core/services/graph"
	"github.com/exposuregraph/exposuregraph/internal/core/services/reporting"
	"github.com/exposuregraph/exposuregraph/internal/core/services/scan"
	"github.com/exposuregraph/exposuregraph/internal/core/services/scoring"
	"github.com/exposuregraph/exposuregraph/internal/mock"
	"github.com/exposuregraph/exposuregraph/internal/telemetry"
)

// Application wires every component of the system. It is the composition
// root: adapters are built here and injected into the core services.
type Application struct {
	Config      *config.Config
	Store       *storage.SQLiteGraphStore
	History     *history.SQLiteRepository
	AuthService *auth.AuthService
	Pipeline    *scan.Pipeline
	Agent       *agent.QueryAgent
	WebServer   *webserver.Server

	shutdownTracer func(context.Context) error
}

// New creates an Application and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}
	if err := app.bootstrap(); err != nil {
		app.Close()
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

func (app *Application) bootstrap() error {
	// 1. Observability
	telemetry.InitMetrics()
	shutdown, err := telemetry.InitTracer()
	if err != nil {
		return fmt.Errorf("tracer init: %w", err)
	}
	app.shutdownTracer = shutdown

	// 2. Storage
	store, err := storage.NewSQLiteGraphStore(app.Config.GraphDBPath)
	if err != nil {
		return fmt.Errorf("graph store: %w", err)
	}
	app.Store = store

	hist, err := history.NewSQLiteRepository(app.Config.HistoryDBPath)
	if err != nil {
		return fmt.Errorf("history store: %w", err)
	}
	app.History = hist

	// 3. Auth
	userRepo := storage.NewUserRepository(store)
	app.AuthService = auth.NewAuthService(userRepo)
	if err := app.AuthService.EnsureDefaultAdmin(context.Background()); err != nil {
		return fmt.Errorf("default admin: %w", err)
	}

	// 4. Core services
	calculator := scoring.NewRiskCalculator()
	builder := graph.NewBuilder(store)
	wsManager := websocket.NewWSManager(builder)

	collector, prober := app.buildCollectors()
	app.Pipeline = scan.NewPipeline(
		collector, prober, calculator, store, hist, wsManager,
		app.Config.AllowedTargets,
	)

	app.Agent = agent.NewQueryAgent(app.buildLLM(), store, hist)

	overview := reporting.NewOverviewService(store)
	generator := reporting.NewExposureReportGenerator(store)

	// 5. Optional demo graph
	if app.Config.DemoMode {
		seeder := mock.NewSeeder(store, calculator)
		if err := seeder.Seed(context.Background()); err != nil {
			return fmt.Errorf("demo seed: %w", err)
		}
	}

	// 6. Web server
	app.WebServer = webserver.NewServer(app.Config.Addr, webserver.Deps{
		Store:      store,
		History:    hist,
		Auth:       app.AuthService,
		Pipeline:   app.Pipeline,
		Agent:      app.Agent,
		Calculator: calculator,
		Builder:    builder,
		Overview:   overview,
		Generator:  generator,
		WSManager:  wsManager,
	})

	return nil
}

// buildCollectors returns the real tool-backed adapters, falling back to the
// deterministic mocks when demo mode is on or the tools aren't installed.
func (app *Application) buildCollectors() (ports.SubdomainCollector, ports.ServiceProber) {
	if app.Config.DemoMode {
		slog.Info("demo mode: using synthetic discovery and probing")
		return mock.NewCollector(), mock.NewProber()
	}
	return collectors.NewSubfinderCollector(), collectors.NewHTTPXProber()
}

func (app *Application) buildLLM() ports.LLMClient {
	if app.Config.MockLLM {
		slog.Info("using mock LLM client for the query agent")
		return llm.NewMockClient()
	}
	return llm.NewOllamaClient(app.Config.OllamaHost, app.Config.OllamaModel)
}

// Run starts the web server and blocks until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	return app.WebServer.Run(ctx)
}

// Close releases every resource the application holds. Safe to call on a
// partially bootstrapped instance.
func (app *Application) Close() {
	if app.shutdownTracer != nil {
		if err := app.shutdownTracer(context.Background()); err != nil {
			log.Printf("Tracer shutdown error: %v", err)
		}
	}
	if app.History != nil {
		if err := app.History.Close(); err != nil {
			log.Printf("History store close error: %v", err)
		}
	}
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			log.Printf("Graph store close error: %v", err)
		}
	}
}
