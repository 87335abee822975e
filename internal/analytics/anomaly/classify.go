package anomaly

import (
	"strings"

	"github.com/soltixdb/climatix/internal/analytics"
)

// LabelUnusual is used when a flagged reading matches no threshold rule
const LabelUnusual = "unusual combination of parameters"

// Classify labels a reading by absolute thresholds. Each channel contributes
// at most one label, in channel order.
func Classify(r analytics.Reading, th analytics.ClassificationThresholds) []string {
	var labels []string

	if r.Temp > th.TempHigh {
		labels = append(labels, "high temperature")
	} else if r.Temp < th.TempLow {
		labels = append(labels, "low temperature")
	}

	if r.Hum > th.HumHigh {
		labels = append(labels, "high humidity")
	} else if r.Hum < th.HumLow {
		labels = append(labels, "low humidity")
	}

	if r.Lux > th.LuxHigh {
		labels = append(labels, "bright light")
	} else if r.Lux < th.LuxLow {
		labels = append(labels, "darkness")
	}

	if len(labels) == 0 {
		labels = append(labels, LabelUnusual)
	}
	return labels
}

// Label joins labels into the display form
func Label(labels []string) string {
	return strings.Join(labels, ", ")
}

// TallyEntry counts how many flagged records carry a label
type TallyEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summarize tallies individual labels across records, ordered by first
// appearance.
func Summarize(records []Record) []TallyEntry {
	tally := []TallyEntry{}
	index := make(map[string]int)

	for _, rec := range records {
		for _, label := range rec.Labels {
			if i, ok := index[label]; ok {
				tally[i].Count++
				continue
			}
			index[label] = len(tally)
			tally = append(tally, TallyEntry{Label: label, Count: 1})
		}
	}
	return tally
}
