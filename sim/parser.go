package sim

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cellchar/cellchar/types"
)

// errorIndicators are the substrings simulators print on measurement or
// analysis failure. Any listing line containing one fails the whole parse.
var errorIndicators = []string{"failed", "Error"}

// maxListingLineBytes bounds a single listing line; simulators wrap their
// output well below this.
const maxListingLineBytes = 1024 * 1024

// parseListing scans a simulator listing for the requested measurement
// names. Results appear as "name = value" (the '=' is treated as whitespace
// so "name= value" splits identically); the first line stating a result for
// a requested name supplies its value. Every requested name must be found.
func parseListing(r io.Reader, want []types.Metric) (Result, error) {
	results := make(Result, len(want))

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxListingLineBytes)
	for sc.Scan() {
		line := sc.Text()
		for _, indicator := range errorIndicators {
			if strings.Contains(line, indicator) {
				return nil, fmt.Errorf("simulator reported: %s", strings.TrimSpace(line))
			}
		}

		for _, name := range want {
			if _, done := results[name]; done || !strings.Contains(line, string(name)) {
				continue
			}
			if value, ok := measurementValue(line, string(name)); ok {
				results[name] = value
			}
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading simulator listing: %w", err)
	}

	var missing []string
	for _, name := range want {
		if _, ok := results[name]; !ok {
			missing = append(missing, string(name))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("listing is missing measurements: %s", strings.Join(missing, ", "))
	}
	return results, nil
}

// measurementValue extracts the value following name on a listing line.
// Returns ok=false when the line mentions the name without stating a result,
// e.g. a deck statement echoed into an hspice listing.
func measurementValue(line, name string) (float64, bool) {
	fields := strings.Fields(strings.ReplaceAll(line, "=", " "))
	for i, field := range fields {
		if field != name || i+1 >= len(fields) {
			continue
		}
		if value, err := strconv.ParseFloat(fields[i+1], 64); err == nil {
			return value, true
		}
	}
	return 0, false
}
