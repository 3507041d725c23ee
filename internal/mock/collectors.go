package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

// Collector is a drop-in replacement for the subfinder adapter. It returns
// the fixed demo layout for any target so scans work without external tools.
type Collector struct{}

func NewCollector() *Collector { return &Collector{} }

func (c *Collector) Discover(ctx context.Context, target string) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(200 * time.Millisecond):
	}
	target = strings.ToLower(strings.TrimSpace(target))
	subs := make([]string, 0, len(demoLayout))
	for _, spec := range demoLayout {
		subs = append(subs, fmt.Sprintf("%s.%s", subdomainPrefixes[spec.prefix], target))
	}
	return subs, nil
}

// Prober is a drop-in replacement for the httpx adapter. Fingerprints are
// derived from the host's prefix so the same host always probes the same.
type Prober struct{}

func NewProber() *Prober { return &Prober{} }

func (p *Prober) Probe(ctx context.Context, hosts []string) ([]domain.WebService, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(200 * time.Millisecond):
	}

	byPrefix := make(map[string]svcSpec, len(demoLayout))
	for _, spec := range demoLayout {
		byPrefix[subdomainPrefixes[spec.prefix]] = spec
	}

	services := make([]domain.WebService, 0, len(hosts))
	for _, host := range hosts {
		host = strings.ToLower(strings.TrimSpace(host))
		prefix, _, found := strings.Cut(host, ".")
		if !found {
			continue
		}
		spec, ok := byPrefix[prefix]
		if !ok {
			continue
		}
		svc := domain.WebService{
			URL:           fmt.Sprintf("%s://%s", spec.scheme, host),
			SubdomainFQDN: host,
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
		services = append(services, svc)
	}
	return services, nil
}
