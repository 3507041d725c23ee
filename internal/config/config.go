package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Addr           string
	GraphDBPath    string
	HistoryDBPath  string
	OllamaHost     string
	OllamaModel    string
	MockLLM        bool
	DemoMode       bool
	AllowedTargets []string
	Debug          bool
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("XG_ADDR", ":8480")
	cfg.GraphDBPath = getEnv("XG_GRAPH_DB", DefaultDataPath("graph.db"))
	cfg.HistoryDBPath = getEnv("XG_HISTORY_DB", DefaultDataPath("history.db"))
	cfg.OllamaHost = getEnv("XG_OLLAMA_HOST", "http://localhost:11434")
	cfg.OllamaModel = getEnv("XG_OLLAMA_MODEL", "llama3.1")
	cfg.MockLLM = getEnvBool("XG_MOCK_LLM", false)
	cfg.DemoMode = getEnvBool("XG_DEMO", false)
	targetsStr := getEnv("XG_TARGETS", "")

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.GraphDBPath, "graph-db", cfg.GraphDBPath, "Path to graph SQLite database")
	flag.StringVar(&cfg.HistoryDBPath, "history-db", cfg.HistoryDBPath, "Path to scan history SQLite database")
	flag.StringVar(&cfg.OllamaHost, "ollama-host", cfg.OllamaHost, "Ollama server URL")
	flag.StringVar(&cfg.OllamaModel, "ollama-model", cfg.OllamaModel, "Ollama model for the query agent")
	flag.BoolVar(&cfg.MockLLM, "mock-llm", cfg.MockLLM, "Use a deterministic mock instead of Ollama")
	flag.BoolVar(&cfg.DemoMode, "demo", cfg.DemoMode, "Seed the graph with synthetic demo data on startup")
	flag.StringVar(&targetsStr, "targets", targetsStr, "Comma separated allow-list of scannable root domains")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")

	flag.Parse()

	cfg.AllowedTargets = parseTargets(targetsStr)

	return cfg
}

func parseTargets(s string) []string {
	var targets []string
	if s == "" {
		return targets
	}
	for _, p := range strings.Split(s, ",") {
		trimmed := strings.ToLower(strings.TrimSpace(p))
		if trimmed != "" {
			targets = append(targets, trimmed)
		}
	}
	return targets
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// DefaultDataPath returns a path under ~/.exposuregraph, creating the
// directory if it doesn't exist.
func DefaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return name
	}

	dataDir := filepath.Join(home, ".exposuregraph")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Printf("Warning: Could not create .exposuregraph directory, using current dir: %v", err)
		return name
	}

	return filepath.Join(dataDir, name)
}
