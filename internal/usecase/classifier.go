// Package usecase contains application business logic.
package usecase

import (
	"strings"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

// Classify maps an observed subject to a category. Matching is
// case-insensitive substring against each policy list; productive_apps is
// checked before distracting_apps, so a subject matching both counts as
// productive. Pure and deterministic: equal inputs always yield the same
// category.
func Classify(subject string, policy domain.Policy) domain.Category {
	s := strings.ToLower(strings.TrimSpace(subject))
	if s == "" {
		return domain.CategoryNeutral
	}
	if matchesAny(s, policy.ProductiveApps) {
		return domain.CategoryProductive
	}
	if matchesAny(s, policy.DistractingApps) {
		return domain.CategoryDistracting
	}
	return domain.CategoryNeutral
}

// matchesAny reports whether the subject contains any pattern.
func matchesAny(subject string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(subject, p) {
			return true
		}
	}
	return false
}
