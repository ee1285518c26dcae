package core

import (
	"fmt"
	"regexp"
	"time"
)

// AccountType represents the type of account.
type AccountType string

const (
	AccountTypeMSA     AccountType = "msa"
	AccountTypeOffline AccountType = "offline"
)

var undashedUUID = regexp.MustCompile(`^[0-9a-f]{32}$`)
var dashedUUID = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Account is a persisted session: everything a launch needs to authenticate
// as a player. ID is the player UUID stored without dashes (32 hex chars).
// MSARefreshToken is absent for offline accounts.
type Account struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Type            AccountType `json:"type"`
	AccessToken     string      `json:"accessToken"`
	ExpiresAt       int64       `json:"expiresAt"` // absolute expiry, unix seconds
	MSARefreshToken string      `json:"msaRefreshToken,omitempty"`
}

// IsExpired checks if the token is expired (with 5m buffer). Offline
// accounts never expire.
func (a *Account) IsExpired() bool {
	if a.Type == AccountTypeOffline {
		return false
	}
	return time.Now().Add(5 * time.Minute).After(time.Unix(a.ExpiresAt, 0))
}

// IsComplete reports whether every field a launch requires is present: for
// an MSA account that is the access token, a non-zero expiry, a 32-hex
// undashed UUID, and a display name (the refresh token is optional). Offline
// accounts only need the UUID and name.
func (a *Account) IsComplete() bool {
	if !undashedUUID.MatchString(a.ID) || a.Name == "" {
		return false
	}
	if a.Type == AccountTypeOffline {
		return true
	}
	return a.AccessToken != "" && a.ExpiresAt != 0
}

// DashedUUID renders the stored UUID in the 8-4-4-4-12 form launch argument
// placeholders require. An already-dashed id is passed through unchanged.
func (a *Account) DashedUUID() (string, error) {
	if dashedUUID.MatchString(a.ID) {
		return a.ID, nil
	}
	if !undashedUUID.MatchString(a.ID) {
		return "", fmt.Errorf("account id %q is not a 32-char hex uuid", a.ID)
	}
	return fmt.Sprintf("%s-%s-%s-%s-%s", a.ID[0:8], a.ID[8:12], a.ID[12:16], a.ID[16:20], a.ID[20:32]), nil
}
