package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"diamondhost/admin-console/internal/apperr"
)

// RESTClient speaks the identity-toolkit style JSON API:
// POST {BaseURL}/accounts:<op>?key=<APIKey>.
type RESTClient struct {
	BaseURL string
	APIKey  string
	// TokenURL exchanges refresh tokens; defaults to BaseURL + "/token".
	TokenURL string
	// RevokePath, when set, is called on sign-out to revoke the token
	// server side. Providers without revocation leave it empty.
	RevokePath string
	HTTP       *http.Client
}

func NewRESTClient(baseURL, apiKey string, httpClient *http.Client) *RESTClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RESTClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    httpClient,
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type accountResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

func (r accountResponse) credential() Credential {
	return Credential{
		UID:          r.LocalID,
		Email:        r.Email,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    parseSeconds(r.ExpiresIn),
	}
}

func (c *RESTClient) SignIn(ctx context.Context, email, password string) (Credential, error) {
	var resp accountResponse
	err := c.post(ctx, c.accountsURL("signInWithPassword"), signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return Credential{}, err
	}
	return resp.credential(), nil
}

func (c *RESTClient) Reauthenticate(ctx context.Context, email, password string) (Credential, error) {
	cred, err := c.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			return Credential{}, apperr.Auth(apperr.ErrReauthFailed.Code, err)
		}
		return Credential{}, err
	}
	return cred, nil
}

func (c *RESTClient) SignOut(ctx context.Context, idToken string) error {
	if c.RevokePath == "" {
		return nil
	}
	target := c.BaseURL + "/" + strings.TrimLeft(c.RevokePath, "/") + c.keyQuery()
	return c.post(ctx, target, map[string]string{"idToken": idToken}, nil)
}

func (c *RESTClient) CreateIdentity(ctx context.Context, email, password string) (Credential, error) {
	var resp accountResponse
	err := c.post(ctx, c.accountsURL("signUp"), signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return Credential{}, err
	}
	return resp.credential(), nil
}

type lookupResponse struct {
	Users []struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	} `json:"users"`
}

func (c *RESTClient) Lookup(ctx context.Context, idToken string) (Identity, error) {
	var resp lookupResponse
	if err := c.post(ctx, c.accountsURL("lookup"), map[string]string{"idToken": idToken}, &resp); err != nil {
		return Identity{}, err
	}
	if len(resp.Users) == 0 {
		return Identity{}, apperr.Auth("identity_not_found", nil)
	}
	return Identity{UID: resp.Users[0].LocalID, Email: resp.Users[0].Email}, nil
}

type updateRequest struct {
	IDToken           string `json:"idToken"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

func (c *RESTClient) UpdateCredential(ctx context.Context, idToken, newPassword string) (Credential, error) {
	var resp accountResponse
	err := c.post(ctx, c.accountsURL("update"), updateRequest{
		IDToken:           idToken,
		Password:          newPassword,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return Credential{}, err
	}
	return resp.credential(), nil
}

type refreshRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

func (c *RESTClient) Refresh(ctx context.Context, refreshToken string) (Credential, error) {
	target := c.TokenURL
	if target == "" {
		target = c.BaseURL + "/token"
	}
	var resp refreshResponse
	err := c.post(ctx, target+c.keyQuery(), refreshRequest{
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
	}, &resp)
	if err != nil {
		return Credential{}, err
	}
	return Credential{
		UID:          resp.UserID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    parseSeconds(resp.ExpiresIn),
	}, nil
}

func (c *RESTClient) accountsURL(op string) string {
	return c.BaseURL + "/accounts:" + op + c.keyQuery()
}

func (c *RESTClient) keyQuery() string {
	if c.APIKey == "" {
		return ""
	}
	return "?key=" + url.QueryEscape(c.APIKey)
}

type providerError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *RESTClient) post(ctx context.Context, target string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return apperr.Auth(apperr.ErrProviderUnreachable.Code, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Auth(apperr.ErrProviderUnreachable.Code, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var perr providerError
		_ = json.Unmarshal(raw, &perr)
		return classify(resp.StatusCode, perr.Error.Message)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Auth(apperr.ErrProviderUnreachable.Code, fmt.Errorf("decode provider response: %w", err))
	}
	return nil
}

// classify maps provider error messages such as "INVALID_PASSWORD" or
// "TOO_MANY_ATTEMPTS_TRY_LATER : ..." onto console error codes.
func classify(status int, message string) error {
	code := message
	if i := strings.IndexAny(code, " :"); i > 0 {
		code = code[:i]
	}
	cause := fmt.Errorf("identity provider: status %d: %s", status, message)
	switch code {
	case "INVALID_PASSWORD", "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED", "INVALID_EMAIL", "MISSING_PASSWORD":
		return apperr.Auth(apperr.ErrInvalidCredentials.Code, cause)
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "USER_NOT_FOUND", "INVALID_REFRESH_TOKEN", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return apperr.Auth("session_revoked", cause)
	case "EMAIL_EXISTS":
		return apperr.Conflict("email_exists", "an account with this email already exists")
	case "WEAK_PASSWORD":
		return apperr.Validation("weak_password", message)
	}
	if status >= 500 {
		return apperr.Auth(apperr.ErrProviderUnreachable.Code, cause)
	}
	return apperr.Auth("identity_rejected", cause)
}

func parseSeconds(raw string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
