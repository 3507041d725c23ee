package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
	"github.com/exposuregraph/exposuregraph/internal/core/services/scoring"
	"github.com/exposuregraph/exposuregraph/internal/telemetry"
)

var (
	ErrTargetNotAllowed = errors.New("target is not in the allowed scan scope")
	ErrNoSubdomains     = errors.New("no subdomains discovered for target")
)

// Pipeline runs the full reconnaissance flow for one target:
// discover subdomains, probe for live services, score each service, and
// persist everything into the exposure graph.
type Pipeline struct {
	collector  ports.SubdomainCollector
	prober     ports.ServiceProber
	calculator *scoring.RiskCalculator
	store      ports.GraphStore
	history    ports.ScanHistory
	events     ports.EventSink
	allowed    map[string]struct{}
}

// NewPipeline wires the scan pipeline. allowedTargets is the scope
// allow-list; an empty list means every target is denied.
func NewPipeline(
	collector ports.SubdomainCollector,
	prober ports.ServiceProber,
	calculator *scoring.RiskCalculator,
	store ports.GraphStore,
	history ports.ScanHistory,
	events ports.EventSink,
	allowedTargets []string,
) *Pipeline {
	allowed := make(map[string]struct{}, len(allowedTargets))
	for _, t := range allowedTargets {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			allowed[t] = struct{}{}
		}
	}
	return &Pipeline{
		collector:  collector,
		prober:     prober,
		calculator: calculator,
		store:      store,
		history:    history,
		events:     events,
		allowed:    allowed,
	}
}

// Allowed reports whether the target is inside the scan scope.
func (p *Pipeline) Allowed(target string) bool {
	_, ok := p.allowed[strings.ToLower(strings.TrimSpace(target))]
	return ok
}

// Run executes one scan against the target. The returned ScanRun is the
// persisted record, marked completed or failed.
func (p *Pipeline) Run(ctx context.Context, target string) (*domain.ScanRun, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if !p.Allowed(target) {
		telemetry.ScansTotal.WithLabelValues("denied").Inc()
		return nil, fmt.Errorf("%w: %s", ErrTargetNotAllowed, target)
	}

	run, err := domain.NewScanRun(uuid.New().String(), target)
	if err != nil {
		return nil, err
	}
	p.saveRun(ctx, run)
	slog.Info("scan started", "run_id", run.ID, "target", target)
	p.publishProgress("discovery", 0, "Enumerating subdomains for "+target)

	subdomains, err := p.discover(ctx, target)
	if err != nil {
		return p.fail(ctx, run, err)
	}
	p.publishProgress("probing", 30, fmt.Sprintf("Probing %d hosts for live services", len(subdomains)))

	services, err := p.probe(ctx, subdomains)
	if err != nil {
		return p.fail(ctx, run, err)
	}
	p.publishProgress("scoring", 60, fmt.Sprintf("Scoring %d live services", len(services)))

	highest, err := p.persistAndScore(ctx, target, subdomains, services)
	if err != nil {
		return p.fail(ctx, run, err)
	}

	run.Complete(len(subdomains), len(services), highest)
	p.saveRun(ctx, run)
	telemetry.ScansTotal.WithLabelValues("completed").Inc()
	p.publishProgress("done", 100,
		fmt.Sprintf("Scan complete: %d subdomains, %d services, highest risk %d",
			run.Subdomains, run.Services, run.HighestScore))
	slog.Info("scan completed",
		"run_id", run.ID,
		"subdomains", run.Subdomains,
		"services", run.Services,
		"highest_score", run.HighestScore)
	return run, nil
}

func (p *Pipeline) discover(ctx context.Context, target string) ([]string, error) {
	start := time.Now()
	subdomains, err := p.collector.Discover(ctx, target)
	telemetry.ScanPhaseDuration.WithLabelValues("discovery").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("subdomain discovery failed: %w", err)
	}
	if len(subdomains) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSubdomains, target)
	}
	telemetry.SubdomainsDiscovered.Add(float64(len(subdomains)))
	p.publishLog(fmt.Sprintf("Discovered %d subdomains", len(subdomains)), "info")
	return subdomains, nil
}

func (p *Pipeline) probe(ctx context.Context, subdomains []string) ([]domain.WebService, error) {
	start := time.Now()
	services, err := p.prober.Probe(ctx, subdomains)
	telemetry.ScanPhaseDuration.WithLabelValues("probing").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("service probing failed: %w", err)
	}
	p.publishLog(fmt.Sprintf("Found %d live services", len(services)), "info")
	return services, nil
}

// persistAndScore merges all discovered assets into the graph and scores
// every live service. Returns the highest score seen.
func (p *Pipeline) persistAndScore(ctx context.Context, target string, subdomains []string, services []domain.WebService) (int, error) {
	start := time.Now()
	defer func() {
		telemetry.ScanPhaseDuration.WithLabelValues("scoring").Observe(time.Since(start).Seconds())
	}()

	if _, err := p.store.MergeDomain(ctx, target, domain.SourceScan); err != nil {
		return 0, fmt.Errorf("failed to persist target domain: %w", err)
	}
	for _, fqdn := range subdomains {
		if _, err := p.store.MergeSubdomain(ctx, fqdn, target); err != nil {
			return 0, fmt.Errorf("failed to persist subdomain %s: %w", fqdn, err)
		}
	}

	highest := 0
	for _, svc := range services {
		if _, err := p.store.MergeWebService(ctx, svc); err != nil {
			return 0, fmt.Errorf("failed to persist service %s: %w", svc.URL, err)
		}
		score, err := p.scoreService(ctx, svc)
		if err != nil {
			// A single unscoreable service should not kill the run.
			slog.Warn("failed to score service", "url", svc.URL, "error", err)
			p.publishLog("Failed to score "+svc.URL, "warn")
			continue
		}
		if score > highest {
			highest = score
		}
	}
	return highest, nil
}

// scoreService computes and persists the risk assessment for one service.
func (p *Pipeline) scoreService(ctx context.Context, svc domain.WebService) (int, error) {
	result := p.calculator.CalculateScore(svc.Signal())
	factors, err := json.Marshal(result.Factors)
	if err != nil {
		return 0, fmt.Errorf("failed to encode risk factors: %w", err)
	}
	updated, err := p.store.UpdateRiskScore(ctx, svc.URL, result.Score, string(factors))
	if err != nil {
		return 0, err
	}
	if !updated {
		return 0, fmt.Errorf("service %s vanished before scoring", svc.URL)
	}
	telemetry.ServicesScored.Inc()
	return result.Score, nil
}

// Rescore recomputes risk for every stored service using the current
// rule set, without touching collectors. Returns the number of services
// rescored.
func (p *Pipeline) Rescore(ctx context.Context) (int, error) {
	services, err := p.store.GetServicesByRisk(ctx, 0, 100000)
	if err != nil {
		return 0, fmt.Errorf("failed to load scored services: %w", err)
	}
	unscored, err := p.store.GetUnscoredServices(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load unscored services: %w", err)
	}
	services = append(services, unscored...)

	count := 0
	for _, svc := range services {
		if _, err := p.scoreService(ctx, svc); err != nil {
			slog.Warn("rescore failed for service", "url", svc.URL, "error", err)
			continue
		}
		count++
	}
	slog.Info("rescore finished", "services", count)
	return count, nil
}

func (p *Pipeline) fail(ctx context.Context, run *domain.ScanRun, err error) (*domain.ScanRun, error) {
	run.Fail(err)
	p.saveRun(ctx, run)
	telemetry.ScansTotal.WithLabelValues("failed").Inc()
	p.publishProgress("failed", 100, "Scan failed: "+err.Error())
	slog.Error("scan failed", "run_id", run.ID, "target", run.Target, "error", err)
	return run, err
}

func (p *Pipeline) saveRun(ctx context.Context, run *domain.ScanRun) {
	if p.history == nil {
		return
	}
	if err := p.history.SaveRun(ctx, *run); err != nil {
		slog.Warn("failed to persist scan run", "run_id", run.ID, "error", err)
	}
}

func (p *Pipeline) publishProgress(phase string, percent int, message string) {
	if p.events != nil {
		p.events.PublishProgress(phase, percent, message)
	}
}

func (p *Pipeline) publishLog(message, level string) {
	if p.events != nil {
		p.events.PublishLog(message, level)
	}
}
