package reporting

// Severity band thresholds over the 0-100 risk score range.
const (
	thresholdCritical = 80
	thresholdHigh     = 60
	thresholdMedium   = 40
)

// ClassifyRisk converts a numeric score to a human-readable severity band.
func ClassifyRisk(score int) string {
	switch {
	case score >= thresholdCritical:
		return "critical"
	case score >= thresholdHigh:
		return "high"
	case score >= thresholdMedium:
		return "medium"
	default:
		return "low"
	}
}
