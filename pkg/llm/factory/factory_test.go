package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	tests := []struct {
		name         string
		providerType string
		apiKey       string
		wantErr      bool
	}{
		{name: "ollama needs no key", providerType: "ollama"},
		{name: "gemini requires key", providerType: "gemini", wantErr: true},
		{name: "gemini with key", providerType: "gemini", apiKey: "k"},
		{name: "anthropic requires key", providerType: "anthropic", wantErr: true},
		{name: "openai with key", providerType: "openai", apiKey: "k"},
		{name: "unknown backend", providerType: "bard", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewLLMProvider(tt.providerType, "some-model", "", tt.apiKey)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, provider)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, provider)
		})
	}
}
