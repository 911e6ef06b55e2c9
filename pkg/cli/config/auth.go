package config

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/usecase"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Auth holds CLI flags for the OpenID Connect provider and the no-auth
// development mode
type Auth struct {
	issuerURL    string
	clientID     string
	clientSecret string
	noAuthUID    string
	noAuthEmail  string
	noAuthName   string
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "oidc-issuer-url",
			Usage:       "OpenID Connect issuer URL (e.g. https://accounts.google.com)",
			Category:    "Authentication",
			Destination: &x.issuerURL,
			Sources:     cli.EnvVars("AGENTDESK_OIDC_ISSUER_URL"),
		},
		&cli.StringFlag{
			Name:        "oidc-client-id",
			Usage:       "OpenID Connect client ID",
			Category:    "Authentication",
			Destination: &x.clientID,
			Sources:     cli.EnvVars("AGENTDESK_OIDC_CLIENT_ID"),
		},
		&cli.StringFlag{
			Name:        "oidc-client-secret",
			Usage:       "OpenID Connect client secret",
			Category:    "Authentication",
			Destination: &x.clientSecret,
			Sources:     cli.EnvVars("AGENTDESK_OIDC_CLIENT_SECRET"),
		},
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and run as the specified user ID (development only). Example: --no-auth=dev",
			Category:    "Authentication",
			Destination: &x.noAuthUID,
			Sources:     cli.EnvVars("AGENTDESK_NO_AUTH"),
		},
		&cli.StringFlag{
			Name:        "no-auth-email",
			Usage:       "Email of the no-auth user",
			Category:    "Authentication",
			Value:       "dev@localhost",
			Destination: &x.noAuthEmail,
			Sources:     cli.EnvVars("AGENTDESK_NO_AUTH_EMAIL"),
		},
		&cli.StringFlag{
			Name:        "no-auth-name",
			Usage:       "Display name of the no-auth user",
			Category:    "Authentication",
			Value:       "Developer",
			Destination: &x.noAuthName,
			Sources:     cli.EnvVars("AGENTDESK_NO_AUTH_NAME"),
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("issuer-url", x.issuerURL),
		slog.Int("client-id.len", len(x.clientID)),
		slog.Int("client-secret.len", len(x.clientSecret)),
		slog.String("no-auth", x.noAuthUID),
	)
}

// IsConfigured checks if the OIDC provider configuration is complete
func (x *Auth) IsConfigured() bool {
	return x.issuerURL != "" && x.clientID != "" && x.clientSecret != ""
}

// IsNoAuthMode returns true if no-auth mode is enabled
func (x *Auth) IsNoAuthMode() bool {
	return x.noAuthUID != ""
}

// Configure creates an AuthUseCase for the OIDC provider, or a NoAuthnUseCase
// when --no-auth is set
func (x *Auth) Configure(ctx context.Context, repo interfaces.Repository, baseURL string) (usecase.AuthUseCaseInterface, error) {
	if x.noAuthUID != "" {
		if x.clientID != "" || x.clientSecret != "" {
			logging.From(ctx).Warn("--no-auth is set, ignoring --oidc-client-id/--oidc-client-secret")
		}
		return usecase.NewNoAuthnUseCase(repo, x.noAuthUID, x.noAuthEmail, x.noAuthName), nil
	}

	if !x.IsConfigured() || baseURL == "" {
		return nil, goerr.Wrap(ErrMissingOption,
			"OIDC configuration is required: set --oidc-issuer-url, --oidc-client-id, --oidc-client-secret and --base-url, or use --no-auth")
	}

	callbackURL := strings.TrimRight(baseURL, "/") + "/api/auth/callback"
	return usecase.NewAuthUseCase(repo, x.issuerURL, x.clientID, x.clientSecret, callbackURL), nil
}
