package authchain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quasar/mctui/internal/core"
)

func TestAuthorizeURL_CarriesState(t *testing.T) {
	c := New("test-client-id")
	u := c.AuthorizeURL("the-state")
	if !strings.Contains(u, "client_id=test-client-id") || !strings.Contains(u, "state=the-state") {
		t.Fatalf("authorize URL missing expected params: %s", u)
	}
}

func TestParseRedirect_StateMismatchRejected(t *testing.T) {
	_, err := ParseRedirect("https://login.live.com/oauth20_desktop.srf?code=abc&state=wrong", "expected")
	if core.KindOf(err) != core.KindAuthFailed {
		t.Fatalf("expected KindAuthFailed for state mismatch, got %v: %v", core.KindOf(err), err)
	}
}

func TestParseRedirect_Success(t *testing.T) {
	code, err := ParseRedirect("https://login.live.com/oauth20_desktop.srf?code=abc123&state=s1", "s1")
	if err != nil {
		t.Fatalf("ParseRedirect: %v", err)
	}
	if code != "abc123" {
		t.Fatalf("expected code abc123, got %s", code)
	}
}

func TestParseRedirect_UserDeniedConsent(t *testing.T) {
	_, err := ParseRedirect("https://login.live.com/oauth20_desktop.srf?error=access_denied&error_description=user+cancelled&state=s1", "s1")
	if core.KindOf(err) != core.KindAuthFailed {
		t.Fatalf("expected KindAuthFailed, got %v", err)
	}
}

func withEndpoint(t *testing.T, target *string, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	old := *target
	*target = srv.URL
	t.Cleanup(func() { *target = old })
}

func TestExchangeCode_Success(t *testing.T) {
	withEndpoint(t, &msaTokenURL, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(msaTokenResponse{
			AccessToken:  "msa-access",
			RefreshToken: "msa-refresh",
			ExpiresIn:    3600,
		})
	})

	c := New("client-id")
	access, refresh, expires, err := c.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if access != "msa-access" || refresh != "msa-refresh" || expires != 3600 {
		t.Fatalf("unexpected result: %s %s %d", access, refresh, expires)
	}
}

func TestLoginWithXbox_InvalidAppRegistration(t *testing.T) {
	withEndpoint(t, &mcLoginURL, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": "Invalid app registration"}`))
	})

	c := New("client-id")
	_, _, err := c.LoginWithXbox(context.Background(), "uhs", "xsts-token")
	if core.KindOf(err) != core.KindAuthFailed {
		t.Fatalf("expected KindAuthFailed, got %v: %v", core.KindOf(err), err)
	}
	if !strings.Contains(err.Error(), "invalid app registration") {
		t.Fatalf("expected targeted message, got: %v", err)
	}
}

func TestSignIn_FullChain(t *testing.T) {
	withEndpoint(t, &xboxUserAuthURL, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Token": "xbl-token",
		})
	})
	withEndpoint(t, &xstsAuthURL, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Token": "xsts-token",
			"DisplayClaims": map[string]interface{}{
				"xui": []map[string]string{{"uhs": "the-uhs"}},
			},
		})
	})
	withEndpoint(t, &mcLoginURL, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "mc-access",
			"expires_in":   3600,
		})
	})
	withEndpoint(t, &mcEntitlementURL, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]string{{"name": "product_minecraft"}},
		})
	})
	withEndpoint(t, &mcProfileURL, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":   "00112233445566778899aabbccddeeff",
			"name": "Steve",
		})
	})

	c := New("client-id")
	acc, err := c.SignIn(context.Background(), "msa-access", "msa-refresh")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if acc.Name != "Steve" || acc.AccessToken != "mc-access" || acc.MSARefreshToken != "msa-refresh" {
		t.Fatalf("unexpected account: %+v", acc)
	}
}

func TestCheckEntitlements_NoneOwned(t *testing.T) {
	withEndpoint(t, &mcEntitlementURL, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"items": []map[string]string{}})
	})

	c := New("client-id")
	err := c.CheckEntitlements(context.Background(), "tok")
	if core.KindOf(err) != core.KindNoEntitlement {
		t.Fatalf("expected KindNoEntitlement, got %v: %v", core.KindOf(err), err)
	}
}
