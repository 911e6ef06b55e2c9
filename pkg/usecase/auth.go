package usecase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
	"github.com/secmon-lab/agentdesk/pkg/utils/safe"
)

const (
	// jwksTTL bounds how long a fetched key set is reused
	jwksTTL = time.Hour

	jwtAcceptableSkew = 10 * time.Second
)

// AuthUseCaseInterface is served by both the OIDC flow and the no-auth
// development mode
type AuthUseCaseInterface interface {
	GetAuthURL(state string) string
	HandleCallback(ctx context.Context, code string) (*auth.Token, error)
	ValidateToken(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error)
	ValidateBearer(ctx context.Context, rawJWT string) (*auth.Token, error)
	Logout(ctx context.Context, tokenID auth.TokenID) error
	IsNoAuthn() bool
}

// AuthUseCase signs users in through an OpenID Connect provider
type AuthUseCase struct {
	repo         interfaces.Repository
	issuerURL    string
	clientID     string
	clientSecret string
	callbackURL  string
	httpClient   *http.Client
	cache        *authCache

	mu       sync.Mutex
	oidcConf *OpenIDConfiguration
	keySet   jwk.Set
	keySetAt time.Time
}

func NewAuthUseCase(repo interfaces.Repository, issuerURL, clientID, clientSecret, callbackURL string, options ...AuthOption) *AuthUseCase {
	uc := &AuthUseCase{
		repo:         repo,
		issuerURL:    strings.TrimSuffix(issuerURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		callbackURL:  callbackURL,
		httpClient:   http.DefaultClient,
		cache:        newAuthCache(),
	}

	for _, opt := range options {
		opt(uc)
	}

	return uc
}

// AuthOption is a functional option for AuthUseCase
type AuthOption func(*AuthUseCase)

// WithAuthHTTPClient sets the client used for discovery, JWKS and token requests
func WithAuthHTTPClient(client *http.Client) AuthOption {
	return func(uc *AuthUseCase) {
		uc.httpClient = client
	}
}

// OpenIDConfiguration is the subset of the provider discovery document in use
type OpenIDConfiguration struct {
	Issuer                string   `json:"issuer"`
	AuthorizationEndpoint string   `json:"authorization_endpoint"`
	TokenEndpoint         string   `json:"token_endpoint"`
	UserinfoEndpoint      string   `json:"userinfo_endpoint"`
	JWKSURI               string   `json:"jwks_uri"`
	ScopesSupported       []string `json:"scopes_supported"`
}

// tokenResponse is the token endpoint reply of the authorization code grant
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	IDToken          string `json:"id_token"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// idTokenClaims are the identity claims read from a verified JWT
type idTokenClaims struct {
	Sub       string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// GetAuthURL returns the provider authorization URL. Discovery failures fall
// back to the conventional /authorize path of the issuer.
func (uc *AuthUseCase) GetAuthURL(state string) string {
	endpoint := uc.issuerURL + "/authorize"
	if conf, err := uc.getOpenIDConfiguration(context.Background()); err == nil && conf.AuthorizationEndpoint != "" {
		endpoint = conf.AuthorizationEndpoint
	}

	params := url.Values{}
	params.Set("client_id", uc.clientID)
	params.Set("scope", "openid email profile")
	params.Set("redirect_uri", uc.callbackURL)
	params.Set("response_type", "code")
	params.Set("state", state)

	return endpoint + "?" + params.Encode()
}

// IsNoAuthn returns false for regular AuthUseCase
func (uc *AuthUseCase) IsNoAuthn() bool {
	return false
}

// HandleCallback exchanges the authorization code, verifies the ID token,
// records the user and issues a session token
func (uc *AuthUseCase) HandleCallback(ctx context.Context, code string) (*auth.Token, error) {
	tokenResp, err := uc.exchangeCodeForToken(ctx, code)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to exchange code for token")
	}

	if tokenResp.Error != "" {
		return nil, goerr.New("oidc token error",
			goerr.V("error", tokenResp.Error),
			goerr.V("description", tokenResp.ErrorDescription))
	}

	claims, err := uc.decodeJWT(ctx, tokenResp.IDToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode ID token")
	}

	if err := uc.upsertUser(ctx, claims); err != nil {
		return nil, err
	}

	token := auth.NewToken(claims.Sub, claims.Email, claims.Name)
	if err := uc.repo.PutToken(ctx, token); err != nil {
		return nil, goerr.Wrap(err, "failed to store token", goerr.V("token_id", token.ID))
	}

	logging.From(ctx).Info("user signed in", "sub", claims.Sub, "token_id", token.ID)
	return token, nil
}

// ValidateToken validates a session token and returns user info
func (uc *AuthUseCase) ValidateToken(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error) {
	return uc.validateTokenWithCache(ctx, tokenID, tokenSecret)
}

// ValidateBearer verifies a JWT issued by the provider for this client. The
// result is cached under a digest of the raw token.
func (uc *AuthUseCase) ValidateBearer(ctx context.Context, rawJWT string) (*auth.Token, error) {
	return uc.validateBearerWithCache(ctx, rawJWT)
}

// Logout deletes the token
func (uc *AuthUseCase) Logout(ctx context.Context, tokenID auth.TokenID) error {
	uc.cache.remove(tokenID)
	return uc.repo.DeleteToken(ctx, tokenID)
}

func (uc *AuthUseCase) upsertUser(ctx context.Context, claims *idTokenClaims) error {
	if _, err := uc.repo.User().Upsert(ctx, &model.User{
		ID:    types.UserID(claims.Sub),
		Email: claims.Email,
		Name:  claims.Name,
	}); err != nil {
		return goerr.Wrap(err, "failed to record user", goerr.V(UserIDKey, claims.Sub))
	}
	return nil
}

func (uc *AuthUseCase) exchangeCodeForToken(ctx context.Context, code string) (*tokenResponse, error) {
	conf, err := uc.getOpenIDConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", uc.clientID)
	data.Set("client_secret", uc.clientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", uc.callbackURL)

	encodedData := data.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, conf.TokenEndpoint, strings.NewReader(encodedData))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.ContentLength = int64(len(encodedData))

	resp, err := uc.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to make token request")
	}
	defer safe.Close(ctx, resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response body")
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, goerr.Wrap(err, "failed to parse token response", goerr.V("status", resp.StatusCode))
	}

	if resp.StatusCode != http.StatusOK && tokenResp.Error == "" {
		return nil, goerr.New("token endpoint returned error", goerr.V("status", resp.StatusCode))
	}

	return &tokenResp, nil
}

// getOpenIDConfiguration fetches the discovery document once and reuses it
func (uc *AuthUseCase) getOpenIDConfiguration(ctx context.Context) (*OpenIDConfiguration, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.oidcConf != nil {
		return uc.oidcConf, nil
	}

	discoveryURL := uc.issuerURL + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}

	resp, err := uc.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch OpenID configuration", goerr.V("url", discoveryURL))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("failed to fetch OpenID configuration",
			goerr.V("status", resp.StatusCode), goerr.V("url", discoveryURL))
	}

	var conf OpenIDConfiguration
	if err := json.NewDecoder(resp.Body).Decode(&conf); err != nil {
		return nil, goerr.Wrap(err, "failed to parse OpenID configuration")
	}
	if conf.JWKSURI == "" || conf.TokenEndpoint == "" {
		return nil, goerr.New("incomplete OpenID configuration", goerr.V("url", discoveryURL))
	}

	uc.oidcConf = &conf
	return uc.oidcConf, nil
}

func (uc *AuthUseCase) getKeySet(ctx context.Context) (jwk.Set, error) {
	conf, err := uc.getOpenIDConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.keySet != nil && time.Since(uc.keySetAt) < jwksTTL {
		return uc.keySet, nil
	}

	keySet, err := jwk.Fetch(ctx, conf.JWKSURI, jwk.WithHTTPClient(uc.httpClient))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch provider public keys", goerr.V("jwks_uri", conf.JWKSURI))
	}

	uc.keySet = keySet
	uc.keySetAt = time.Now()
	return keySet, nil
}

// decodeJWT verifies signature, audience and issuer of a provider JWT
func (uc *AuthUseCase) decodeJWT(ctx context.Context, raw string) (*idTokenClaims, error) {
	if raw == "" {
		return nil, goerr.New("empty JWT")
	}

	keySet, err := uc.getKeySet(ctx)
	if err != nil {
		return nil, err
	}

	conf, err := uc.getOpenIDConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	parseOpts := []jwt.ParseOption{
		jwt.WithKeySet(keySet),
		jwt.WithValidate(true),
		jwt.WithAudience(uc.clientID),
		jwt.WithAcceptableSkew(jwtAcceptableSkew),
	}
	if conf.Issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(conf.Issuer))
	}

	token, err := jwt.Parse([]byte(raw), parseOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse or verify JWT")
	}

	if token.Subject() == "" {
		return nil, goerr.New("sub claim not found in token")
	}

	claims := &idTokenClaims{
		Sub:       token.Subject(),
		ExpiresAt: token.Expiration(),
	}
	if v, ok := token.Get("email"); ok {
		if s, ok := v.(string); ok {
			claims.Email = s
		}
	}
	if v, ok := token.Get("name"); ok {
		if s, ok := v.(string); ok {
			claims.Name = s
		}
	}

	return claims, nil
}
