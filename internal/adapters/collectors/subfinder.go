package collectors

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/exposuregraph/exposuregraph/internal/core/ports"
)

var ErrSubfinderNotFound = errors.New("subfinder binary not found in PATH")

const defaultDiscoveryTimeout = 5 * time.Minute

// SubfinderCollector discovers subdomains by shelling out to the
// subfinder binary in silent mode.
type SubfinderCollector struct {
	binary  string
	timeout time.Duration
}

// NewSubfinderCollector builds a collector using the subfinder binary on PATH.
func NewSubfinderCollector() *SubfinderCollector {
	return &SubfinderCollector{binary: "subfinder", timeout: defaultDiscoveryTimeout}
}

// Discover runs passive subdomain enumeration against the target domain.
// Results are lowercased and deduplicated, preserving first-seen order.
func (c *SubfinderCollector) Discover(ctx context.Context, target string) ([]string, error) {
	if _, err := exec.LookPath(c.binary); err != nil {
		return nil, ErrSubfinderNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary, "-d", target, "-silent")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("subfinder timed out for %s: %w", target, ctx.Err())
		}
		return nil, fmt.Errorf("subfinder failed for %s: %w (%s)", target, err, strings.TrimSpace(stderr.String()))
	}

	subdomains := parseSubdomainLines(&stdout)
	slog.Info("subdomain discovery finished",
		"target", target,
		"found", len(subdomains),
		"duration", time.Since(start).Round(time.Millisecond))
	return subdomains, nil
}

// parseSubdomainLines normalizes raw line output into a deduplicated list.
func parseSubdomainLines(r *bytes.Buffer) []string {
	seen := make(map[string]struct{})
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

var _ ports.SubdomainCollector = (*SubfinderCollector)(nil)
