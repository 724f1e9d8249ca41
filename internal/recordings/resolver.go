// Package recordings locates, fetches, and validates call recording
// audio from the remote SFTP file store.
package recordings

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// yearSegment matches a date-partitioned path segment like "2024/".
var yearSegment = regexp.MustCompile(`(^|/)(19|20)\d{2}/`)

// Resolver turns a stored recording location into an ordered list of
// candidate remote paths. The historical storage layout is inconsistent:
// some rows carry full paths, some carry tenant-prefixed paths, and some
// carry bare filenames whose capture date is unknown. All path guessing
// lives here; the fetcher just probes candidates in order.
type Resolver struct {
	// TenantPrefix is stripped from locations that carry it.
	TenantPrefix string

	// LookbackDays is how many prior days to probe for bare filenames.
	LookbackDays int

	// Now allows tests to pin "today". Defaults to time.Now.
	Now func() time.Time
}

// NewResolver creates a resolver with the given layout settings.
func NewResolver(tenantPrefix string, lookbackDays int) *Resolver {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	return &Resolver{
		TenantPrefix: tenantPrefix,
		LookbackDays: lookbackDays,
		Now:          time.Now,
	}
}

// Candidates returns deduplicated candidate paths, most-likely-correct
// first. It never errors: a location that resolves nowhere is discovered
// by the fetcher's stat calls, not here.
func (r *Resolver) Candidates(location string) []string {
	loc := strings.TrimSpace(location)
	if loc == "" {
		return nil
	}

	// Some rows store the location URL-encoded.
	if strings.Contains(loc, "%") {
		if decoded, err := url.QueryUnescape(loc); err == nil {
			loc = decoded
		}
	}

	if r.looksLikePath(loc) {
		return []string{r.canonicalize(loc)}
	}

	// Bare filename: recordings are organized under ./YYYY/MM/DD/ by
	// capture date, which the filename does not encode. Probe today and
	// the preceding lookback window.
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	seen := make(map[string]bool)
	candidates := make([]string, 0, r.LookbackDays+1)
	for i := 0; i <= r.LookbackDays; i++ {
		day := now.AddDate(0, 0, -i)
		p := "./" + day.Format("2006/01/02") + "/" + loc
		if !seen[p] {
			seen[p] = true
			candidates = append(candidates, p)
		}
	}
	return candidates
}

// looksLikePath reports whether the location already encodes a
// directory, so no date fan-out is needed.
func (r *Resolver) looksLikePath(loc string) bool {
	if strings.HasPrefix(loc, "./") || strings.HasPrefix(loc, "/") {
		return true
	}
	if r.TenantPrefix != "" && strings.Contains(loc, r.TenantPrefix) {
		return true
	}
	return yearSegment.MatchString(loc)
}

// canonicalize strips the tenant prefix and enforces a leading "./".
func (r *Resolver) canonicalize(loc string) string {
	if r.TenantPrefix != "" {
		if idx := strings.Index(loc, r.TenantPrefix); idx >= 0 {
			loc = loc[idx+len(r.TenantPrefix):]
		}
	}
	loc = strings.TrimPrefix(loc, "./")
	loc = strings.TrimPrefix(loc, "/")
	return "./" + loc
}
