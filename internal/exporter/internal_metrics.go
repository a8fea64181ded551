package exporter

import (
	"github.com/neox5/doglessdata/internal/config"
	"github.com/neox5/doglessdata/internal/scrape"
)

// StatsFunc reports the scanner counters for internal metrics.
type StatsFunc func() scrape.Stats

// Internal metric name definitions (both formats hardcoded)
const (
	linesTotalUnderscore     = "doglessdata_scrape_lines_total"
	linesTotalDot            = "doglessdata.scrape.lines.total"
	samplesTotalUnderscore   = "doglessdata_scrape_samples_total"
	samplesTotalDot          = "doglessdata.scrape.samples.total"
	malformedTotalUnderscore = "doglessdata_scrape_malformed_total"
	malformedTotalDot        = "doglessdata.scrape.malformed.total"
	oversizedTotalUnderscore = "doglessdata_scrape_oversized_total"
	oversizedTotalDot        = "doglessdata.scrape.oversized.total"
)

// internalNames holds the internal metric names for one exporter.
type internalNames struct {
	lines     string
	samples   string
	malformed string
	oversized string
}

// namesFor selects internal metric names. native means underscore for
// Prometheus and dot for OTEL.
func namesFor(format config.NamingFormat, nativeDot bool) internalNames {
	dot := format == config.NamingFormatDot || (format == config.NamingFormatNative && nativeDot)
	if dot {
		return internalNames{
			lines:     linesTotalDot,
			samples:   samplesTotalDot,
			malformed: malformedTotalDot,
			oversized: oversizedTotalDot,
		}
	}
	return internalNames{
		lines:     linesTotalUnderscore,
		samples:   samplesTotalUnderscore,
		malformed: malformedTotalUnderscore,
		oversized: oversizedTotalUnderscore,
	}
}
