package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

func TestClassify(t *testing.T) {
	policy := domain.Policy{
		ProductiveApps:  []string{"code", "gnome-terminal", "libreoffice"},
		DistractingApps: []string{"firefox", "youtube", "spotify"},
	}

	tests := []struct {
		name    string
		subject string
		want    domain.Category
	}{
		{"exact productive", "code", domain.CategoryProductive},
		{"exact distracting", "firefox", domain.CategoryDistracting},
		{"substring match", "org.gnome.gnome-terminal", domain.CategoryProductive},
		{"case insensitive", "Firefox", domain.CategoryDistracting},
		{"unknown is neutral", "nautilus", domain.CategoryNeutral},
		{"empty subject is neutral", "", domain.CategoryNeutral},
		{"whitespace subject is neutral", "   ", domain.CategoryNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.subject, policy))
		})
	}
}

func TestClassify_ProductiveWinsOverDistracting(t *testing.T) {
	policy := domain.Policy{
		ProductiveApps:  []string{"studio"},
		DistractingApps: []string{"studio"},
	}

	// Both lists match; the productive list is checked first.
	assert.Equal(t, domain.CategoryProductive, Classify("android-studio", policy))
}

func TestClassify_Deterministic(t *testing.T) {
	policy := domain.Policy{
		ProductiveApps:  []string{"code"},
		DistractingApps: []string{"youtube"},
	}

	first := Classify("youtube-music", policy)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Classify("youtube-music", policy))
	}
}

func TestClassify_EmptyPolicy(t *testing.T) {
	assert.Equal(t, domain.CategoryNeutral, Classify("anything", domain.Policy{}))
}

func TestClassify_IgnoresEmptyPatterns(t *testing.T) {
	policy := domain.Policy{DistractingApps: []string{""}}

	// An empty pattern must not match every subject.
	assert.Equal(t, domain.CategoryNeutral, Classify("code", policy))
}
