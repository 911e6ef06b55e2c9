package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
	"github.com/secmon-lab/agentdesk/pkg/usecase"
	"github.com/secmon-lab/agentdesk/pkg/utils/errutil"
)

type AuthUseCase = usecase.AuthUseCaseInterface

type userMeResponse struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// generateState generates a random state parameter for OAuth
func generateState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", goerr.Wrap(err, "failed to generate random state")
	}
	return hex.EncodeToString(bytes), nil
}

func newCookie(r *http.Request, name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}

func clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	c := newCookie(r, name, "")
	c.MaxAge = -1
	http.SetCookie(w, c)
}

// authLoginHandler handles the OAuth login initiation
func authLoginHandler(authUC AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// For NoAuthn mode, redirect to home
		if authUC.IsNoAuthn() {
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		// Generate state parameter to prevent CSRF
		state, err := generateState()
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		stateCookie := newCookie(r, cookieOAuthState, state)
		stateCookie.MaxAge = 600
		http.SetCookie(w, stateCookie)

		http.Redirect(w, r, authUC.GetAuthURL(state), http.StatusTemporaryRedirect)
	}
}

// authCallbackHandler handles the OAuth callback
func authCallbackHandler(authUC AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stateCookie, err := r.Cookie(cookieOAuthState)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "missing state cookie"), http.StatusBadRequest)
			return
		}

		state := r.URL.Query().Get("state")
		if state == "" || state != stateCookie.Value {
			errutil.HandleHTTP(r.Context(), w, goerr.New("invalid state parameter"), http.StatusBadRequest)
			return
		}
		clearCookie(w, r, cookieOAuthState)

		code := r.URL.Query().Get("code")
		if code == "" {
			errutil.HandleHTTP(r.Context(), w, goerr.New("missing authorization code"), http.StatusBadRequest)
			return
		}

		token, err := authUC.HandleCallback(r.Context(), code)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		tokenIDCookie := newCookie(r, cookieTokenID, token.ID.String())
		tokenIDCookie.Expires = token.ExpiresAt
		tokenSecretCookie := newCookie(r, cookieTokenSecret, token.Secret.String())
		tokenSecretCookie.Expires = token.ExpiresAt

		http.SetCookie(w, tokenIDCookie)
		http.SetCookie(w, tokenSecretCookie)

		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
	}
}

// authLogoutHandler handles user logout
func authLogoutHandler(authUC AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tokenIDCookie, err := r.Cookie(cookieTokenID); err == nil {
			if err := authUC.Logout(r.Context(), auth.TokenID(tokenIDCookie.Value)); err != nil {
				errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to logout"), http.StatusInternalServerError)
				return
			}
		}

		clearCookie(w, r, cookieTokenID)
		clearCookie(w, r, cookieTokenSecret)

		writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
	}
}

// authMeHandler returns current user information
func authMeHandler(authUC AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			token *auth.Token
			err   error
		)

		switch raw, ok := bearerToken(r); {
		case authUC.IsNoAuthn():
			token, err = authUC.ValidateToken(r.Context(), "", "")
		case ok:
			token, err = authUC.ValidateBearer(r.Context(), raw)
		default:
			tokenIDCookie, errID := r.Cookie(cookieTokenID)
			tokenSecretCookie, errSecret := r.Cookie(cookieTokenSecret)
			if errID != nil || errSecret != nil {
				writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Error: "Authentication required"})
				return
			}
			token, err = authUC.ValidateToken(r.Context(),
				auth.TokenID(tokenIDCookie.Value),
				auth.TokenSecret(tokenSecretCookie.Value))
		}
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusUnauthorized)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, userMeResponse{
			Sub:   token.Sub,
			Email: token.Email,
			Name:  token.Name,
		})
	}
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		errutil.Handle(ctx, err, "failed to encode JSON response")
	}
}
