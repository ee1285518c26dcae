package core

import "testing"

func TestAccount_IsComplete(t *testing.T) {
	complete := &Account{
		ID:          "0123456789abcdef0123456789abcdef",
		Name:        "Player",
		Type:        AccountTypeMSA,
		AccessToken: "tok",
		ExpiresAt:   1234567890,
	}
	// The fixture above is already a valid 32-hex uuid; the slice keeps it so.
	complete.ID = complete.ID[:32]

	if !complete.IsComplete() {
		t.Error("expected complete MSA account to report complete")
	}

	missingToken := *complete
	missingToken.AccessToken = ""
	if missingToken.IsComplete() {
		t.Error("expected account without access token to be incomplete")
	}

	dashedID := *complete
	dashedID.ID = "01234567-89ab-cdef-0123-456789abcdef"
	if dashedID.IsComplete() {
		t.Error("expected dashed uuid to be rejected")
	}

	offline := &Account{ID: complete.ID, Name: "Steve", Type: AccountTypeOffline}
	if !offline.IsComplete() {
		t.Error("expected offline account with id and name to be complete")
	}
}

func TestAccount_DashedUUID(t *testing.T) {
	acc := &Account{ID: "0123456789abcdef0123456789abcdef"}
	dashed, err := acc.DashedUUID()
	if err != nil {
		t.Fatalf("DashedUUID failed: %v", err)
	}
	want := "01234567-89ab-cdef-0123-456789abcdef"
	if dashed != want {
		t.Errorf("got %q, want %q", dashed, want)
	}

	bad := &Account{ID: "not-a-uuid"}
	if _, err := bad.DashedUUID(); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestAccountManager_RequireActive(t *testing.T) {
	mgr := NewAccountManager(t.TempDir())

	if _, err := mgr.RequireActive(); KindOf(err) != KindNotSignedIn {
		t.Fatalf("expected not-signed-in with no accounts, got %v", err)
	}

	mgr.Add(&Account{ID: "0123456789abcdef0123456789abcdef", Name: "Player", Type: AccountTypeOffline})
	if _, err := mgr.RequireActive(); err != nil {
		t.Fatalf("expected complete offline account to satisfy RequireActive: %v", err)
	}
}
