// Package authchain implements the four-hop Microsoft → Xbox → XSTS →
// Minecraft authentication chain and the entitlement/profile steps that
// follow it.
package authchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quasar/mctui/internal/core"
)

const redirectURI = "https://login.live.com/oauth20_desktop.srf"

// Endpoint URLs as package-level vars rather than constants so tests can
// redirect them at an httptest server.
var (
	msaTokenURL      = "https://login.live.com/oauth20_token.srf"
	msaAuthorizeURL  = "https://login.live.com/oauth20_authorize.srf"
	xboxUserAuthURL  = "https://user.auth.xboxlive.com/user/authenticate"
	xstsAuthURL      = "https://xsts.auth.xboxlive.com/xsts/authorize"
	mcLoginURL       = "https://api.minecraftservices.com/authentication/login_with_xbox"
	mcEntitlementURL = "https://api.minecraftservices.com/entitlements/mcstore"
	mcProfileURL     = "https://api.minecraftservices.com/minecraft/profile"
)

// Client drives the auth chain. A plain *http.Client is enough: each step
// is a single request with its own explicit error surface, so the chain
// does not reuse the bounded-retry download machinery.
type Client struct {
	http     *http.Client
	clientID string
}

// New builds a Client for the given (already selection-resolved) Microsoft
// application client id.
func New(clientID string) *Client {
	return &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		clientID: clientID,
	}
}

// NewStateToken generates the random state cookie required before
// launching the browser, so a completed redirect can be checked for
// staleness.
func NewStateToken() string {
	return uuid.NewString()
}

// AuthorizeURL builds the Microsoft OAuth sign-in page the browser opens.
func (c *Client) AuthorizeURL(state string) string {
	v := url.Values{
		"client_id":     {c.clientID},
		"response_type": {"code"},
		"redirect_uri":  {redirectURI},
		"scope":         {"XboxLive.signin offline_access"},
		"state":         {state},
	}
	return msaAuthorizeURL + "?" + v.Encode()
}

// ParseRedirect extracts the authorization code from the redirect URL the
// user pastes back after signing in, rejecting it if the state cookie
// doesn't match the one generated for this attempt.
func ParseRedirect(redirectURL, expectedState string) (code string, err error) {
	u, err := url.Parse(strings.TrimSpace(redirectURL))
	if err != nil {
		return "", core.NewError(core.KindAuthFailed, "could not parse redirect URL", err)
	}

	q := u.Query()
	if q.Get("error") != "" {
		return "", core.NewError(core.KindAuthFailed,
			fmt.Sprintf("microsoft sign-in was not completed: %s", q.Get("error_description")), nil)
	}

	gotState := q.Get("state")
	if expectedState != "" && gotState != expectedState {
		return "", core.NewError(core.KindAuthFailed, "stale or mismatched sign-in link; please try again", nil)
	}

	code = q.Get("code")
	if code == "" {
		return "", core.NewError(core.KindAuthFailed, "redirect URL did not contain an authorization code", nil)
	}
	return code, nil
}

// msaTokenResponse is shared by the authorization-code exchange (Step A)
// and the refresh-token exchange: both hit the same endpoint.
type msaTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeCode redeems an OAuth authorization code at the Live.com token
// endpoint.
func (c *Client) ExchangeCode(ctx context.Context, code string) (accessToken, refreshToken string, expiresIn int, err error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}
	return c.msaTokenRequest(ctx, form)
}

// RefreshToken redeems a stored refresh token for a fresh access token,
// using the same Live.com endpoint as Step A.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, expiresIn int, err error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"redirect_uri":  {redirectURI},
	}
	return c.msaTokenRequest(ctx, form)
}

func (c *Client) msaTokenRequest(ctx context.Context, form url.Values) (accessToken, refreshToken string, expiresIn int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, msaTokenURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", "", 0, core.NewError(core.KindAuthFailed, "building microsoft token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", 0, core.NewError(core.KindUpstreamUnavailable, "reaching microsoft token endpoint", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var parsed msaTokenResponse
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
			return "", "", 0, core.NewError(core.KindAuthFailed,
				fmt.Sprintf("microsoft token exchange failed: %s: %s", parsed.Error, parsed.ErrorDescription), nil)
		}
		return "", "", 0, core.NewError(core.KindAuthFailed,
			fmt.Sprintf("microsoft token exchange failed (%d): %s", resp.StatusCode, string(body)), nil)
	}

	var result msaTokenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", "", 0, core.NewError(core.KindAuthFailed, "decoding microsoft token response", err)
	}

	return result.AccessToken, result.RefreshToken, result.ExpiresIn, nil
}

type xboxAuthRequest struct {
	Properties   map[string]interface{} `json:"Properties"`
	RelyingParty string                  `json:"RelyingParty"`
	TokenType    string                  `json:"TokenType"`
}

type xboxAuthResponse struct {
	Token         string `json:"Token"`
	DisplayClaims struct {
		XUI []struct {
			UHS string `json:"uhs"`
		} `json:"xui"`
	} `json:"DisplayClaims"`
}

// AuthenticateXbox exchanges the Microsoft access token for an Xbox Live
// user token.
func (c *Client) AuthenticateXbox(ctx context.Context, msaAccessToken string) (token string, err error) {
	body := xboxAuthRequest{
		Properties: map[string]interface{}{
			"AuthMethod": "RPS",
			"SiteName":   "user.auth.xboxlive.com",
			"RpsTicket":  "d=" + msaAccessToken,
		},
		RelyingParty: "http://auth.xboxlive.com",
		TokenType:    "JWT",
	}
	resp, err := c.doXboxRequest(ctx, xboxUserAuthURL, body)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// AuthenticateXSTS exchanges an Xbox Live user token for an XSTS token and
// returns it along with the user hash needed for the Minecraft login
// identity token.
func (c *Client) AuthenticateXSTS(ctx context.Context, xboxToken string) (xstsToken, uhs string, err error) {
	body := xboxAuthRequest{
		Properties: map[string]interface{}{
			"SandboxId":  "RETAIL",
			"UserTokens": []string{xboxToken},
		},
		RelyingParty: "rp://api.minecraftservices.com/",
		TokenType:    "JWT",
	}
	resp, err := c.doXboxRequest(ctx, xstsAuthURL, body)
	if err != nil {
		return "", "", err
	}
	if len(resp.DisplayClaims.XUI) == 0 || resp.DisplayClaims.XUI[0].UHS == "" {
		return "", "", core.NewError(core.KindAuthFailed, "xsts response missing user hash", nil)
	}
	return resp.Token, resp.DisplayClaims.XUI[0].UHS, nil
}

func (c *Client) doXboxRequest(ctx context.Context, endpoint string, body xboxAuthRequest) (*xboxAuthResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, core.NewError(core.KindAuthFailed, "encoding xbox auth request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, core.NewError(core.KindAuthFailed, "building xbox auth request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-xbl-contract-version", "1")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, core.NewError(core.KindUpstreamUnavailable, "reaching "+endpoint, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, core.NewError(core.KindAuthFailed,
			fmt.Sprintf("xbox auth failed at %s (%d): %s", endpoint, resp.StatusCode, string(respBody)), nil)
	}

	var result xboxAuthResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, core.NewError(core.KindAuthFailed, "decoding xbox auth response", err)
	}
	return &result, nil
}

// LoginWithXbox exchanges the XSTS token and user hash for a Minecraft
// access token. A 403 whose body mentions an invalid app registration gets
// a targeted, actionable message.
func (c *Client) LoginWithXbox(ctx context.Context, uhs, xstsToken string) (accessToken string, expiresIn int, err error) {
	payload, _ := json.Marshal(map[string]string{
		"identityToken": fmt.Sprintf("XBL3.0 x=%s;%s", uhs, xstsToken),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mcLoginURL, bytes.NewReader(payload))
	if err != nil {
		return "", 0, core.NewError(core.KindAuthFailed, "building minecraft login request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, core.NewError(core.KindUpstreamUnavailable, "reaching minecraft login endpoint", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(string(body)), "invalid app registration") {
		return "", 0, core.NewError(core.KindAuthFailed,
			"microsoft rejected this client id (invalid app registration); use the official Minecraft launcher client id", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, core.NewError(core.KindAuthFailed,
			fmt.Sprintf("minecraft login failed (%d): %s", resp.StatusCode, string(body)), nil)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", 0, core.NewError(core.KindAuthFailed, "decoding minecraft login response", err)
	}
	return result.AccessToken, result.ExpiresIn, nil
}

// CheckEntitlements fails with KindNoEntitlement if the account owns no
// Minecraft entitlements.
func (c *Client) CheckEntitlements(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mcEntitlementURL, nil)
	if err != nil {
		return core.NewError(core.KindAuthFailed, "building entitlements request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return core.NewError(core.KindUpstreamUnavailable, "reaching entitlements endpoint", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return core.NewError(core.KindAuthFailed, fmt.Sprintf("entitlements check failed (%d): %s", resp.StatusCode, string(body)), nil)
	}

	var result struct {
		Items []interface{} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return core.NewError(core.KindAuthFailed, "decoding entitlements response", err)
	}
	if len(result.Items) == 0 {
		return core.NewError(core.KindNoEntitlement, "account does not own Minecraft", nil)
	}
	return nil
}

// FetchProfile fetches the Minecraft profile.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (id, name string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mcProfileURL, nil)
	if err != nil {
		return "", "", core.NewError(core.KindAuthFailed, "building profile request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", core.NewError(core.KindUpstreamUnavailable, "reaching profile endpoint", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", "", core.NewError(core.KindAuthFailed, fmt.Sprintf("fetching profile failed (%d): %s", resp.StatusCode, string(body)), nil)
	}

	var result struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", core.NewError(core.KindAuthFailed, "decoding profile response", err)
	}
	return result.ID, result.Name, nil
}

// SignIn runs Steps B through F given an already-exchanged Microsoft access
// token, producing a ready-to-persist Account. msaRefreshToken may be empty.
func (c *Client) SignIn(ctx context.Context, msaAccessToken, msaRefreshToken string) (*core.Account, error) {
	xblToken, err := c.AuthenticateXbox(ctx, msaAccessToken)
	if err != nil {
		return nil, err
	}

	xstsToken, uhs, err := c.AuthenticateXSTS(ctx, xblToken)
	if err != nil {
		return nil, err
	}

	mcToken, expiresIn, err := c.LoginWithXbox(ctx, uhs, xstsToken)
	if err != nil {
		return nil, err
	}

	if err := c.CheckEntitlements(ctx, mcToken); err != nil {
		return nil, err
	}

	id, name, err := c.FetchProfile(ctx, mcToken)
	if err != nil {
		return nil, err
	}

	return &core.Account{
		ID:              id,
		Name:            name,
		Type:            core.AccountTypeMSA,
		AccessToken:     mcToken,
		ExpiresAt:       time.Now().Add(time.Duration(expiresIn) * time.Second).Unix(),
		MSARefreshToken: msaRefreshToken,
	}, nil
}
