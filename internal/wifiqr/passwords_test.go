package wifiqr_test

import (
	"strings"
	"testing"
	"time"

	"playmi/internal/wifiqr"
)

func TestGenerateSecurePasswordLengths(t *testing.T) {
	password, err := wifiqr.GenerateSecurePassword(false)
	if err != nil {
		t.Fatalf("GenerateSecurePassword failed: %v", err)
	}
	if len(password) != 12 {
		t.Fatalf("expected 12 characters, got %d", len(password))
	}

	extended, err := wifiqr.GenerateSecurePassword(true)
	if err != nil {
		t.Fatalf("GenerateSecurePassword(extended) failed: %v", err)
	}
	if len(extended) != 16 {
		t.Fatalf("expected 16 characters, got %d", len(extended))
	}
}

func TestGenerateSecurePasswordVaries(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		password, err := wifiqr.GenerateSecurePassword(false)
		if err != nil {
			t.Fatalf("GenerateSecurePassword failed: %v", err)
		}
		seen[password] = struct{}{}
	}
	if len(seen) < 20 {
		t.Fatalf("expected 20 distinct passwords, got %d", len(seen))
	}
}

func TestGenerateTemporalPassword(t *testing.T) {
	before := time.Now().UTC()
	password, expires, err := wifiqr.GenerateTemporalPassword()
	if err != nil {
		t.Fatalf("GenerateTemporalPassword failed: %v", err)
	}

	stamp := before.Format("200601")
	if !strings.HasPrefix(password, "wifi-"+stamp+"-") {
		t.Fatalf("unexpected password shape: %s", password)
	}
	digits := password[strings.LastIndex(password, "-")+1:]
	if len(digits) != 4 {
		t.Fatalf("expected 4 trailing digits, got %q", digits)
	}

	validity := expires.Sub(before)
	if validity < 29*24*time.Hour || validity > 31*24*time.Hour {
		t.Fatalf("expected roughly 30 days validity, got %s", validity)
	}
}
