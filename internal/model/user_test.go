package model

import (
	"testing"
	"time"
)

func TestLockedWindow(t *testing.T) {
	now := time.Now()

	var user User
	if user.Locked(now) {
		t.Fatalf("user without a lock timestamp must not be locked")
	}

	until := now.Add(10 * time.Minute)
	user.LockedUntil = &until
	if !user.Locked(now) {
		t.Fatalf("lock in force must hold")
	}
	if user.Locked(now.Add(11 * time.Minute)) {
		t.Fatalf("expired lock must not hold")
	}
}

func TestClearLockout(t *testing.T) {
	until := time.Now().Add(time.Minute)
	user := User{FailedLoginAttempts: 5, LockedUntil: &until}

	user.ClearLockout()

	if user.FailedLoginAttempts != 0 {
		t.Fatalf("expected attempt counter reset, got %d", user.FailedLoginAttempts)
	}
	if user.LockedUntil != nil {
		t.Fatalf("expected lock timestamp cleared, got %v", user.LockedUntil)
	}
}

func TestAnonymizeOverwritesPII(t *testing.T) {
	token := "tok-123"
	expiry := time.Now()
	user := User{
		ID:          7,
		Email:       "lena@example.com",
		FirstName:   "Lena",
		LastName:    "Ortiz",
		Password:    "hash",
		ResetToken:  &token,
		ResetExpiry: &expiry,
		Active:      true,
	}

	user.Anonymize()

	if user.Email != "anonymized-7@redacted.local" {
		t.Fatalf("unexpected email %q", user.Email)
	}
	if user.FirstName != "" || user.LastName != "" || user.Password != "" {
		t.Fatalf("PII fields must be blanked: %+v", user)
	}
	if user.ResetToken != nil || user.ResetExpiry != nil {
		t.Fatalf("reset token state must be cleared")
	}
	if user.Active || !user.Anonymized {
		t.Fatalf("anonymized user must be inactive and flagged")
	}
}
