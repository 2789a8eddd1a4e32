package policy

import (
	"bufio"
	"io"
	"strings"
)

// ParseSites reads the blocked site list: one hostname per line, blank
// lines and #-comments ignored, entries lowercased and deduplicated.
func ParseSites(r io.Reader) ([]string, error) {
	var sites []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		site := strings.ToLower(line)
		if seen[site] {
			continue
		}
		seen[site] = true
		sites = append(sites, site)
	}
	return sites, scanner.Err()
}

// normalizeList lowercases, trims and deduplicates app patterns,
// preserving order. Order matters: the classifier reports the first
// matching pattern.
func normalizeList(items []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range items {
		s := strings.ToLower(strings.TrimSpace(item))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
