package insight

import (
	"fmt"
	"strings"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/analytics/anomaly"
	"github.com/soltixdb/climatix/internal/analytics/correlation"
)

// Meaning explains a strength tier in words
func Meaning(s correlation.Strength) string {
	switch s {
	case correlation.StrengthStrong:
		return "close relationship"
	case correlation.StrengthModerate:
		return "noticeable relationship"
	default:
		return "no significant relation"
	}
}

// DescribePair renders the directional narrative of one pair
func DescribePair(p correlation.Pair) string {
	r, ok := p.R()
	if !ok {
		return fmt.Sprintf("%s and %s: not computable (%s)", p.X, p.Y, p.Error)
	}

	if p.Strength == correlation.StrengthWeak {
		return fmt.Sprintf("%s and %s: %s (r=%.2f)", p.X, p.Y, Meaning(p.Strength), r)
	}

	effect := "rise"
	if r < 0 {
		effect = "drop"
	}
	return fmt.Sprintf("%s rise associates with %s %s: %s %s relation (r=%.2f)",
		p.X, p.Y, effect, p.Strength, p.Direction, r)
}

// CorrelationSummary lists the pairs whose |r| exceeds the significance
// threshold, in channel declaration order.
func CorrelationSummary(result *correlation.Result, th analytics.CorrelationThresholds) string {
	if result == nil {
		return "Correlation analysis unavailable."
	}

	significant := result.Significant(th.Significant)
	if len(significant) == 0 {
		return "No strong correlations between parameters were found."
	}

	lines := make([]string, len(significant))
	for i, p := range significant {
		r, _ := p.R()
		lines[i] = fmt.Sprintf("%s and %s: %s %s relation (r=%.2f)",
			p.X, p.Y, p.Strength, p.Direction, r)
	}
	return "Significant correlations found:\n• " + strings.Join(lines, "\n• ")
}

// AnomalySummary renders a tally as "3× high temperature; 1× low humidity"
func AnomalySummary(tally []anomaly.TallyEntry) string {
	if len(tally) == 0 {
		return "No anomalies detected"
	}

	parts := make([]string, len(tally))
	for i, entry := range tally {
		parts[i] = fmt.Sprintf("%d× %s", entry.Count, entry.Label)
	}
	return strings.Join(parts, "; ")
}
