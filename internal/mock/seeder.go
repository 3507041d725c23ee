package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
	"github.com/exposuregraph/exposuregraph/internal/core/services/scoring"
)

// Common subdomain prefixes seen in real estates. The non-production ones
// are kept in here on purpose so demo graphs exercise the full scoring range.
var subdomainPrefixes = []string{
	"www", "api", "app", "mail", "blog",
	"staging", "dev", "test", "uat", "admin",
	"portal", "files", "cdn", "vpn", "shop",
}

var serverHeaders = []string{
	"nginx/1.18.0", "Apache/2.4.41", "Apache/2.2.34", "IIS/6.0",
	"nginx", "cloudflare", "PHP/5.6.40", "gunicorn/19.9.0",
}

var pageTitles = []string{
	"Welcome", "Login", "Index of /files", "Dashboard",
	"API Documentation", "Under Construction", "Customer Portal",
}

var techStacks = [][]string{
	{"WordPress", "PHP", "MySQL"},
	{"React", "Node.js"},
	{"Django", "PostgreSQL"},
	{"jQuery", "Bootstrap"},
	{"Drupal 7", "PHP"},
	nil,
}

type svcSpec struct {
	prefix  int // index into subdomainPrefixes
	scheme  string
	status  int
	server  int // index into serverHeaders, -1 for none
	title   int // index into pageTitles, -1 for none
	techs   int // index into techStacks
}

// One fixed layout per demo domain so runs are reproducible and the graph
// contains services across every risk band.
var demoLayout = []svcSpec{
	{prefix: 0, scheme: "https", status: 200, server: 4, title: 0, techs: 1},
	{prefix: 1, scheme: "https", status: 200, server: 0, title: 4, techs: 2},
	{prefix: 2, scheme: "https", status: 200, server: 5, title: 3, techs: 1},
	{prefix: 3, scheme: "https", status: 404, server: -1, title: -1, techs: 5},
	{prefix: 4, scheme: "https", status: 200, server: 1, title: 0, techs: 0},
	{prefix: 5, scheme: "http", status: 200, server: 2, title: 1, techs: 4},
	{prefix: 6, scheme: "http", status: 200, server: 6, title: 2, techs: 0},
	{prefix: 7, scheme: "http", status: 200, server: 3, title: 5, techs: 3},
	{prefix: 8, scheme: "https", status: 403, server: 0, title: -1, techs: 5},
	{prefix: 9, scheme: "https", status: 200, server: 7, title: 3, techs: 2},
}

var demoDomains = []string{"acme-corp.com", "globex.io"}

// Seeder writes a synthetic but realistic exposure graph, scored with the
// production calculator, so the dashboard and query agent have data to show
// without running a real scan.
type Seeder struct {
	store      ports.GraphStore
	calculator *scoring.RiskCalculator
	log        *slog.Logger
}

func NewSeeder(store ports.GraphStore, calculator *scoring.RiskCalculator) *Seeder {
	return &Seeder{
		store:      store,
		calculator: calculator,
		log:        slog.Default().With("component", "seeder"),
	}
}

// Seed populates the graph. It is idempotent: merges are keyed by name/URL,
// so reseeding an existing demo database changes nothing.
func (s *Seeder) Seed(ctx context.Context) error {
	total := 0
	for _, root := range demoDomains {
		if _, err := s.store.MergeDomain(ctx, root, domain.SourceDemo); err != nil {
			return fmt.Errorf("seed domain %s: %w", root, err)
		}
		for _, spec := range demoLayout {
			svc := s.buildService(root, spec)
			if _, err := s.store.MergeSubdomain(ctx, svc.SubdomainFQDN, root); err != nil {
				return fmt.Errorf("seed subdomain %s: %w", svc.SubdomainFQDN, err)
			}
			if _, err := s.store.MergeWebService(ctx, svc); err != nil {
				return fmt.Errorf("seed service %s: %w", svc.URL, err)
			}
			if err := s.scoreService(ctx, svc); err != nil {
				return err
			}
			total++
		}
	}
	s.log.Info("demo graph seeded", "domains", len(demoDomains), "services", total)
	return nil
}

func (s *Seeder) buildService(root string, spec svcSpec) domain.WebService {
	fqdn := fmt.Sprintf("%s.%s", subdomainPrefixes[spec.prefix], root)
	svc := domain.WebService{
		URL:           fmt.Sprintf("%s://%s", spec.scheme, fqdn),
		SubdomainFQDN: fqdn,
		StatusCode:    spec.status,
		Technologies:  techStacks[spec.techs],
	}
	if spec.server >= 0 {
		server := serverHeaders[spec.server]
		svc.Server = &server
	}
	if spec.title >= 0 {
		title := pageTitles[spec.title]
		svc.Title = &title
	}
	if svc.Technologies == nil {
		svc.Technologies = []string{}
	}
	return svc
}

func (s *Seeder) scoreService(ctx context.Context, svc domain.WebService) error {
	result := s.calculator.CalculateScore(svc.Signal())
	factors, err := json.Marshal(result.Factors)
	if err != nil {
		return fmt.Errorf("encode risk factors for %s: %w", svc.URL, err)
	}
	if _, err := s.store.UpdateRiskScore(ctx, svc.URL, result.Score, string(factors)); err != nil {
		return fmt.Errorf("score demo service %s: %w", svc.URL, err)
	}
	return nil
}
