package telemetry

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteSummary prints one line per gathered counter and histogram series.
// Histograms report their sample count and sum.
func WriteSummary(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}

	lines := make([]string, 0)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			pairs := make([]string, 0, len(metric.GetLabel()))
			for _, label := range metric.GetLabel() {
				pairs = append(pairs, fmt.Sprintf("%s=%q", label.GetName(), label.GetValue()))
			}
			series := family.GetName()
			if len(pairs) > 0 {
				series += "{" + strings.Join(pairs, ",") + "}"
			}

			switch {
			case metric.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", series, metric.GetCounter().GetValue()))
			case metric.GetHistogram() != nil:
				histogram := metric.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%g", series, histogram.GetSampleCount(), histogram.GetSampleSum()))
			}
		}
	}

	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
