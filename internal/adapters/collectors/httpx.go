package collectors

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
)

var (
	ErrHTTPXNotFound = errors.New("httpx binary not found in PATH")
	ErrWrongHTTPX    = errors.New("httpx in PATH is not the projectdiscovery tool")
)

// HTTPXProber probes hosts for live web services using the
// projectdiscovery httpx binary. Many systems ship an unrelated Python
// tool under the same name, so the binary is verified before use.
type HTTPXProber struct {
	binary  string
	timeout time.Duration
}

func NewHTTPXProber() *HTTPXProber {
	return &HTTPXProber{binary: "httpx", timeout: defaultDiscoveryTimeout}
}

// probeResult is the subset of the httpx JSON-lines output we consume.
// Older releases emit "status-code" and "technologies" under different
// keys, so both spellings are accepted.
type probeResult struct {
	URL          string   `json:"url"`
	StatusCode   int      `json:"status_code"`
	StatusCode2  int      `json:"status-code"`
	Title        string   `json:"title"`
	Server       string   `json:"webserver"`
	Server2      string   `json:"server"`
	Tech         []string `json:"tech"`
	Technologies []string `json:"technologies"`
	Input        string   `json:"input"`
	Host         string   `json:"host"`
}

// Probe fingerprints the given hosts and returns one WebService per live URL.
func (p *HTTPXProber) Probe(ctx context.Context, hosts []string) ([]domain.WebService, error) {
	if len(hosts) == 0 {
		return nil, nil
	}
	if err := p.verifyBinary(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary,
		"-json", "-silent", "-sc", "-title", "-server", "-td")
	cmd.Stdin = strings.NewReader(strings.Join(hosts, "\n"))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("httpx timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("httpx failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	services := parseProbeOutput(&stdout)
	slog.Info("service probing finished",
		"hosts", len(hosts),
		"live", len(services),
		"duration", time.Since(start).Round(time.Millisecond))
	return services, nil
}

// verifyBinary checks that the httpx on PATH is the projectdiscovery one.
func (p *HTTPXProber) verifyBinary(ctx context.Context) error {
	path, err := exec.LookPath(p.binary)
	if err != nil {
		return ErrHTTPXNotFound
	}

	vctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(vctx, path, "-version").CombinedOutput()
	if err != nil || !strings.Contains(strings.ToLower(string(out)), "projectdiscovery") {
		return ErrWrongHTTPX
	}
	return nil
}

// parseProbeOutput converts httpx JSON-lines into WebService entities.
// Malformed lines are skipped rather than failing the whole probe.
func parseProbeOutput(r *bytes.Buffer) []domain.WebService {
	var services []domain.WebService
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}
		var res probeResult
		if err := json.Unmarshal([]byte(line), &res); err != nil {
			slog.Debug("skipping malformed httpx line", "error", err)
			continue
		}
		if res.URL == "" {
			continue
		}
		services = append(services, resultToService(res))
	}
	return services
}

func resultToService(res probeResult) domain.WebService {
	status := res.StatusCode
	if status == 0 {
		status = res.StatusCode2
	}
	server := res.Server
	if server == "" {
		server = res.Server2
	}
	techs := res.Tech
	if len(techs) == 0 {
		techs = res.Technologies
	}
	if techs == nil {
		techs = []string{}
	}

	fqdn := res.Input
	if fqdn == "" {
		fqdn = res.Host
	}
	fqdn = strings.ToLower(strings.TrimSpace(fqdn))

	svc := domain.WebService{
		URL:           res.URL,
		SubdomainFQDN: fqdn,
		StatusCode:    status,
		Technologies:  techs,
	}
	if res.Title != "" {
		t := res.Title
		svc.Title = &t
	}
	if server != "" {
		s := server
		svc.Server = &s
	}
	return svc
}

var _ ports.ServiceProber = (*HTTPXProber)(nil)
