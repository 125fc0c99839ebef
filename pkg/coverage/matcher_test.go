package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher_Matches(t *testing.T) {
	matcher := NewMatcher()

	tests := []struct {
		name        string
		featureName string
		title       string
		expected    bool
	}{
		{
			name:        "exact match",
			featureName: "Login",
			title:       "Login",
			expected:    true,
		},
		{
			name:        "case-insensitive uppercase title",
			featureName: "Login",
			title:       "LOGIN flow test",
			expected:    true,
		},
		{
			name:        "case-insensitive lowercase title",
			featureName: "Login",
			title:       "login PAGE check",
			expected:    true,
		},
		{
			name:        "substring in the middle",
			featureName: "Login",
			title:       "Verify LOGIN form validation",
			expected:    true,
		},
		{
			name:        "no match",
			featureName: "Login",
			title:       "Test user registration flow",
			expected:    false,
		},
		{
			name:        "no word boundary check",
			featureName: "API",
			title:       "Rapid fire test", // "api" inside "Rapid"
			expected:    true,
		},
		{
			name:        "empty feature name matches everything",
			featureName: "",
			title:       "anything at all",
			expected:    true,
		},
		{
			name:        "empty title only matches empty name",
			featureName: "Login",
			title:       "",
			expected:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, matcher.Matches(tt.featureName, tt.title))
		})
	}
}
