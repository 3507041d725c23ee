// Command xgraph is the operator CLI. It works directly against the local
// graph and history databases, without going through the web server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/exposuregraph/exposuregraph/internal/adapters/collectors"
	"github.com/exposuregraph/exposuregraph/internal/adapters/history"
	"github.com/exposuregraph/exposuregraph/internal/adapters/llm"
	"github.com/exposuregraph/exposuregraph/internal/adapters/storage"
	"github.com/exposuregraph/exposuregraph/internal/config"
	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
	"github.com/exposuregraph/exposuregraph/internal/core/services/agent"
	"github.com/exposuregraph/exposuregraph/internal/core/services/reporting"
	"github.com/exposuregraph/exposuregraph/internal/core/services/scan"
	"github.com/exposuregraph/exposuregraph/internal/core/services/scoring"
	"github.com/exposuregraph/exposuregraph/internal/mock"
)

const usage = `Usage: xgraph <command> [flags]

Commands:
  seed              Populate the graph with synthetic demo data
  scan <target>     Discover, probe and score a target domain
  top               Show the riskiest services in the graph
  query <question>  Ask the graph a question in natural language
  whatif            Score a hypothetical service from flags
  stats             Show graph and risk overview
`

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	var err error

	switch os.Args[1] {
	case "seed":
		err = runSeed(ctx, os.Args[2:])
	case "scan":
		err = runScan(ctx, os.Args[2:])
	case "top":
		err = runTop(ctx, os.Args[2:])
	case "query":
		err = runQuery(ctx, os.Args[2:])
	case "whatif":
		err = runWhatIf(os.Args[2:])
	case "stats":
		err = runStats(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("xgraph %s: %v", os.Args[1], err)
	}
}

func openStore(path string) (*storage.SQLiteGraphStore, error) {
	if path == "" {
		path = config.DefaultDataPath("graph.db")
	}
	return storage.NewSQLiteGraphStore(path)
}

func runSeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	dbPath := fs.String("graph-db", "", "Path to graph SQLite database")
	fs.Parse(args)

	store, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	seeder := mock.NewSeeder(store, scoring.NewRiskCalculator())
	if err := seeder.Seed(ctx); err != nil {
		return err
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	log.Printf("Graph now holds %d domains, %d subdomains, %d services",
		stats.Domains, stats.Subdomains, stats.WebServices)
	return nil
}

func runScan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	dbPath := fs.String("graph-db", "", "Path to graph SQLite database")
	histPath := fs.String("history-db", "", "Path to scan history database")
	demo := fs.Bool("demo", false, "Use synthetic discovery instead of subfinder/httpx")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one target, got %d", fs.NArg())
	}
	target := fs.Arg(0)

	store, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if *histPath == "" {
		*histPath = config.DefaultDataPath("history.db")
	}
	hist, err := history.NewSQLiteRepository(*histPath)
	if err != nil {
		return err
	}
	defer hist.Close()

	var collector ports.SubdomainCollector
	var prober ports.ServiceProber
	if *demo {
		collector, prober = mock.NewCollector(), mock.NewProber()
	} else {
		collector, prober = collectors.NewSubfinderCollector(), collectors.NewHTTPXProber()
	}

	// The CLI scans whatever it is pointed at; scope enforcement belongs to
	// the server, where unauthenticated callers could name targets.
	pipeline := scan.NewPipeline(collector, prober, scoring.NewRiskCalculator(),
		store, hist, nil, []string{strings.ToLower(target)})

	run, err := pipeline.Run(ctx, target)
	if err != nil {
		return err
	}
	log.Printf("Scan %s finished: %d subdomains, %d services, highest score %d",
		run.ID, run.Subdomains, run.Services, run.HighestScore)
	return nil
}

func runTop(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("top", flag.ExitOnError)
	dbPath := fs.String("graph-db", "", "Path to graph SQLite database")
	minScore := fs.Int("min", 0, "Minimum risk score")
	limit := fs.Int("n", 10, "Number of services to show")
	fs.Parse(args)

	store, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	services, err := store.GetServicesByRisk(ctx, *minScore, *limit)
	if err != nil {
		return err
	}
	if len(services) == 0 {
		log.Println("No scored services match.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tLEVEL\tURL\tSERVER")
	for _, svc := range services {
		score := 0
		if svc.RiskScore != nil {
			score = *svc.RiskScore
		}
		server := ""
		if svc.Server != nil {
			server = *svc.Server
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", score, reporting.ClassifyRisk(score), svc.URL, server)
	}
	return w.Flush()
}

func runQuery(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	dbPath := fs.String("graph-db", "", "Path to graph SQLite database")
	histPath := fs.String("history-db", "", "Path to scan history database")
	mockLLM := fs.Bool("mock-llm", false, "Use the deterministic mock instead of Ollama")
	ollamaHost := fs.String("ollama-host", "http://localhost:11434", "Ollama server URL")
	model := fs.String("ollama-model", "llama3.1", "Ollama model")
	asJSON := fs.Bool("json", false, "Print the full answer as JSON")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("expected a question")
	}
	question := strings.Join(fs.Args(), " ")

	store, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if *histPath == "" {
		*histPath = config.DefaultDataPath("history.db")
	}
	hist, err := history.NewSQLiteRepository(*histPath)
	if err != nil {
		return err
	}
	defer hist.Close()

	var client ports.LLMClient
	if *mockLLM {
		client = llm.NewMockClient()
	} else {
		client = llm.NewOllamaClient(*ollamaHost, *model)
	}

	answer := agent.NewQueryAgent(client, store, hist).Ask(ctx, question)
	if *asJSON {
		return json.NewEncoder(os.Stdout).Encode(answer)
	}
	if !answer.Success {
		return fmt.Errorf("%s", answer.Error)
	}
	log.Printf("Query: %s", answer.Query)
	log.Printf("Rows: %d", len(answer.Rows))
	log.Println(answer.Summary)
	return nil
}

func runWhatIf(args []string) error {
	fs := flag.NewFlagSet("whatif", flag.ExitOnError)
	url := fs.String("url", "", "Service URL (required)")
	status := fs.Int("status", 200, "HTTP status code")
	server := fs.String("server", "", "Server header value")
	title := fs.String("title", "", "Page title")
	techs := fs.String("tech", "", "Comma separated technology list")
	fs.Parse(args)

	var serverPtr, titlePtr *string
	if *server != "" {
		serverPtr = server
	}
	if *title != "" {
		titlePtr = title
	}
	var techList []string
	for _, t := range strings.Split(*techs, ",") {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			techList = append(techList, trimmed)
		}
	}

	signal, err := domain.NewServiceSignal(*url, *status, titlePtr, serverPtr, techList)
	if err != nil {
		return err
	}

	result := scoring.NewRiskCalculator().CalculateScore(signal)
	log.Printf("Score: %d (%s)", result.Score, reporting.ClassifyRisk(result.Score))
	for _, f := range result.Factors {
		log.Printf("  +%d %s: %s", f.Contribution, f.Name, f.Explanation)
	}
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	dbPath := fs.String("graph-db", "", "Path to graph SQLite database")
	fs.Parse(args)

	store, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	overview, err := reporting.NewOverviewService(store).BuildOverview(ctx)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(overview)
}
