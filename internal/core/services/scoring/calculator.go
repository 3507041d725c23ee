package scoring

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

// BaseScore is the floor assigned to every evaluated service: any exposed
// service carries some risk before a single indicator fires.
const BaseScore = 20

// MaxScore caps the total a service can accumulate.
const MaxScore = 100

// Points contributed by each factor.
const (
	PointsLiveService       = 30
	PointsNonProduction     = 15
	PointsVersionDisclosure = 10
	PointsOutdatedTech      = 20
	PointsNoHTTPS           = 15
	PointsDirectoryListing  = 10
)

// nonProdIndicators are URL substrings marking non-production environments.
// Order matters: the first match is the one reported.
var nonProdIndicators = []string{
	"staging", "dev", "test", "uat", "sandbox", "demo", "qa", "preprod",
}

// versionPattern detects a version number after a slash in a Server header,
// e.g. "nginx/1.18.0" or "Apache/2".
var versionPattern = regexp.MustCompile(`/\d+[\.\d]*`)

// RiskCalculator produces transparent, explainable risk scores.
//
// The model is deterministic: a base score of 20, six independent binary
// rules each contributing a fixed number of points, and a final cap at 100.
// Every point added comes with a factor explaining why. Rule tables are
// read-only after construction, so a single instance is safe for concurrent
// use.
type RiskCalculator struct {
	nonProd    []string
	version    *regexp.Regexp
	signatures []eolSignature
}

// NewRiskCalculator creates a calculator with the built-in rule tables.
func NewRiskCalculator() *RiskCalculator {
	return &RiskCalculator{
		nonProd:    nonProdIndicators,
		version:    versionPattern,
		signatures: eolSignatures,
	}
}

// CalculateScore evaluates every rule against the signal and returns the
// capped total plus the ordered list of factors that fired. It is a pure
// function of its input: no side effects beyond debug logging, no failure
// modes. Absent or empty optional fields simply do not trigger their rules.
func (rc *RiskCalculator) CalculateScore(signal domain.ServiceSignal) domain.RiskResult {
	factors := []domain.RiskFactor{}
	score := BaseScore

	// Factor 1: Live service
	if signal.StatusCode == 200 {
		factors = append(factors, domain.RiskFactor{
			Name:         "Live Service",
			Contribution: PointsLiveService,
			Explanation:  "Service responds with HTTP 200, confirming it is live and accessible",
		})
		score += PointsLiveService
	}

	// Factor 2: Non-production environment exposed
	if indicator := rc.checkNonProduction(signal.URL); indicator != "" {
		factors = append(factors, domain.RiskFactor{
			Name:         "Non-Production Exposed",
			Contribution: PointsNonProduction,
			Explanation: fmt.Sprintf("URL contains '%s', indicating a non-production "+
				"environment exposed to the internet", indicator),
		})
		score += PointsNonProduction
	}

	// Factor 3: Version disclosure in Server header
	if signal.Server != nil && rc.version.MatchString(*signal.Server) {
		factors = append(factors, domain.RiskFactor{
			Name:         "Version Disclosure",
			Contribution: PointsVersionDisclosure,
			Explanation: fmt.Sprintf("Server header '%s' reveals version information, "+
				"aiding attackers in finding known vulnerabilities", *signal.Server),
		})
		score += PointsVersionDisclosure
	}

	// Factor 4: Outdated technology
	if match, ok := rc.matchOutdated(signal); ok {
		factors = append(factors, domain.RiskFactor{
			Name:         "Outdated Technology",
			Contribution: PointsOutdatedTech,
			Explanation:  fmt.Sprintf("Detected '%s': %s", match.Text, match.Reason),
		})
		score += PointsOutdatedTech
	}

	// Factor 5: No HTTPS. The prefix check is deliberately case-sensitive;
	// an uppercase "HTTP://" URL does not trigger this rule.
	if strings.HasPrefix(signal.URL, "http://") {
		factors = append(factors, domain.RiskFactor{
			Name:         "No HTTPS",
			Contribution: PointsNoHTTPS,
			Explanation: "Service uses unencrypted HTTP, exposing data in transit to " +
				"interception and tampering",
		})
		score += PointsNoHTTPS
	}

	// Factor 6: Directory listing
	if signal.Title != nil && strings.Contains(strings.ToLower(*signal.Title), "index of") {
		factors = append(factors, domain.RiskFactor{
			Name:         "Directory Listing",
			Contribution: PointsDirectoryListing,
			Explanation: "Page title suggests directory listing is enabled, potentially " +
				"exposing sensitive files and structure",
		})
		score += PointsDirectoryListing
	}

	// Cap is applied once, at the end.
	if score > MaxScore {
		score = MaxScore
	}

	slog.Debug("calculated risk score",
		"url", signal.URL, "score", score, "factors", len(factors))

	return domain.RiskResult{Score: score, Factors: factors}
}

// checkNonProduction returns the first non-production indicator contained in
// the URL (case-insensitive), or "" if none match.
func (rc *RiskCalculator) checkNonProduction(url string) string {
	lower := strings.ToLower(url)
	for _, indicator := range rc.nonProd {
		if strings.Contains(lower, indicator) {
			return indicator
		}
	}
	return ""
}
