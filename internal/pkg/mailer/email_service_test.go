package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailerCarriesClientBaseURL(t *testing.T) {
	t.Run("smtp", func(t *testing.T) {
		svc := NewEmailService("smtp.example.com", 587, "user", "pass", "noreply@example.com", "https://app.example.com")
		smtp, ok := svc.(*emailService)
		require.True(t, ok)
		assert.Equal(t, "https://app.example.com", smtp.frontendURL)
	})

	t.Run("console fallback without smtp host", func(t *testing.T) {
		svc := NewEmailService("", 0, "", "", "", "https://app.example.com")
		console, ok := svc.(*consoleEmailService)
		require.True(t, ok)
		assert.Equal(t, "https://app.example.com", console.frontendURL)
	})
}
