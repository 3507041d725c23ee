package scoring

import (
	"strings"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

// eolSignature pairs a lowercase substring pattern with the reason the
// matching software is considered end-of-life.
type eolSignature struct {
	Pattern string
	Reason  string
}

// eolSignatures is the maintained end-of-life signature table. Order is
// significant: the first pattern that matches wins, even when a later
// pattern is more specific, so overlapping entries must stay in this order.
// Maintainers append or adjust entries as software reaches end-of-life.
var eolSignatures = []eolSignature{
	{"php/5", "PHP 5.x is end-of-life since January 2019"},
	{"php/7.0", "PHP 7.0 is end-of-life since December 2018"},
	{"php/7.1", "PHP 7.1 is end-of-life since December 2019"},
	{"php/7.2", "PHP 7.2 is end-of-life since November 2020"},
	{"apache/2.2", "Apache 2.2.x is end-of-life since July 2017"},
	{"nginx/1.1", "Nginx 1.1x is significantly outdated"},
	{"nginx/1.0", "Nginx 1.0x is significantly outdated"},
	{"openssl/1.0", "OpenSSL 1.0.x is end-of-life since December 2019"},
	{"jquery/1.", "jQuery 1.x has known security vulnerabilities"},
	{"jquery/2.", "jQuery 2.x has known security vulnerabilities"},
	{"angular/1.", "AngularJS 1.x is end-of-life since December 2021"},
	{"node/8", "Node.js 8 is end-of-life since December 2019"},
	{"node/10", "Node.js 10 is end-of-life since April 2021"},
	{"node/12", "Node.js 12 is end-of-life since April 2022"},
	{"python/2", "Python 2 is end-of-life since January 2020"},
	{"tomcat/7", "Apache Tomcat 7 is end-of-life"},
	{"tomcat/8.0", "Apache Tomcat 8.0 is end-of-life"},
	{"iis/6", "IIS 6 is end-of-life"},
	{"iis/7", "IIS 7 is end-of-life"},
}

// eolMatch reports what matched and why.
type eolMatch struct {
	// Text is what the explanation should echo: the pattern itself for a
	// Server header match, but the original technology string (original
	// casing) for a technologies match.
	Text   string
	Reason string
}

// matchOutdated checks the Server header first, then each detected
// technology in order, against the signature table in table order. The
// first hit wins; at most one match is returned per evaluation.
func (rc *RiskCalculator) matchOutdated(signal domain.ServiceSignal) (eolMatch, bool) {
	if signal.Server != nil {
		serverLower := strings.ToLower(*signal.Server)
		for _, sig := range rc.signatures {
			if strings.Contains(serverLower, sig.Pattern) {
				return eolMatch{Text: sig.Pattern, Reason: sig.Reason}, true
			}
		}
	}

	for _, tech := range signal.Technologies {
		techLower := strings.ToLower(tech)
		for _, sig := range rc.signatures {
			if strings.Contains(techLower, sig.Pattern) {
				return eolMatch{Text: tech, Reason: sig.Reason}, true
			}
		}
	}

	return eolMatch{}, false
}
