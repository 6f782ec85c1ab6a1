package fault_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"playmi/internal/fault"
)

func TestValidationBuilderCollectsAllViolations(t *testing.T) {
	var b fault.ValidationBuilder
	b.Add("name", "must not be empty")
	b.Addf("wifi_password", "must be at least %d characters", 8)

	err := b.Err()
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *fault.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(verr.Violations))
	}
	msg := err.Error()
	if !strings.Contains(msg, "name") || !strings.Contains(msg, "wifi_password") {
		t.Fatalf("message should name every violated field: %s", msg)
	}
}

func TestValidationBuilderEmpty(t *testing.T) {
	var b fault.ValidationBuilder
	if err := b.Err(); err != nil {
		t.Fatalf("expected nil for no violations, got %v", err)
	}
}

func TestPredicatesMatchWrappedErrors(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		match func(error) bool
	}{
		{"validation", fault.NewValidation(fault.FieldViolation{Field: "x", Reason: "bad"}), fault.IsValidation},
		{"not found", fault.NewNotFound("package", "abc"), fault.IsNotFound},
		{"concurrency", fault.NewConcurrency("company %d busy", 7), fault.IsConcurrency},
		{"invalid state", fault.NewInvalidState("download", "generando"), fault.IsInvalidState},
		{"integrity", fault.NewIntegrity("/tmp/a.zip", "checksum mismatch"), fault.IsIntegrity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer context: %w", tc.err)
			if !tc.match(wrapped) {
				t.Fatalf("predicate did not match wrapped %T", tc.err)
			}
			if tc.match(errors.New("unrelated")) {
				t.Fatal("predicate matched unrelated error")
			}
		})
	}
}

func TestInvalidTransitionMessageNamesBothStates(t *testing.T) {
	err := fault.NewInvalidTransition("update status", "error", "listo")
	msg := err.Error()
	if !strings.Contains(msg, "error") || !strings.Contains(msg, "listo") {
		t.Fatalf("message should name both states: %s", msg)
	}
}

func TestIOErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := fault.NewIO("write archive", "/tmp/pkg.zip", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected IOError to unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "/tmp/pkg.zip") {
		t.Fatalf("message should include the path: %s", err.Error())
	}
}
