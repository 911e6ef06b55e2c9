package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/agentdesk/pkg/cli/config"
	"github.com/secmon-lab/agentdesk/pkg/repository/memory"
)

func TestAuth_Configure(t *testing.T) {
	repo := memory.New()

	t.Run("no-auth mode", func(t *testing.T) {
		cfg := config.NewAuthForTest("", "", "", "dev")
		gt.True(t, cfg.IsNoAuthMode())

		authUC, err := cfg.Configure(t.Context(), repo, "")
		gt.NoError(t, err).Required()
		gt.True(t, authUC.IsNoAuthn())
	})

	t.Run("oidc provider", func(t *testing.T) {
		cfg := config.NewAuthForTest("https://issuer.example.com", "client", "secret", "")
		gt.True(t, cfg.IsConfigured())

		authUC, err := cfg.Configure(t.Context(), repo, "https://agentdesk.example.com/")
		gt.NoError(t, err).Required()
		gt.Bool(t, authUC.IsNoAuthn()).False()
	})

	t.Run("missing provider settings", func(t *testing.T) {
		cfg := config.NewAuthForTest("https://issuer.example.com", "", "", "")
		_, err := cfg.Configure(t.Context(), repo, "https://agentdesk.example.com")
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("missing base url", func(t *testing.T) {
		cfg := config.NewAuthForTest("https://issuer.example.com", "client", "secret", "")
		_, err := cfg.Configure(t.Context(), repo, "")
		gt.Error(t, err).Is(config.ErrMissingOption)
	})
}
