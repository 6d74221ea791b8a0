package domain

import (
	"errors"
	"testing"
	"time"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		details   string
		requestID string
	}{
		{
			name:      "Invalid selection",
			code:      ErrInvalidSelection,
			message:   "Two statin intensities selected",
			details:   "statin_high and statin_moderate are mutually exclusive",
			requestID: "req-123",
		},
		{
			name:      "Database error",
			code:      ErrDatabaseError,
			message:   "Catalog store unavailable",
			details:   "Unable to open SQLite database",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.code, tt.message, tt.details, tt.requestID)

			if err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, err.Code)
			}
			if err.Details != tt.details {
				t.Errorf("Expected details %s, got %s", tt.details, err.Details)
			}
			if err.RequestID != tt.requestID {
				t.Errorf("Expected requestID %s, got %s", tt.requestID, err.RequestID)
			}

			// Check that timestamp is recent (within last minute)
			if time.Since(err.Timestamp) > time.Minute {
				t.Errorf("Timestamp should be recent, got %v", err.Timestamp)
			}

			expectedError := tt.code + ": " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestIncompleteInputError(t *testing.T) {
	err := &IncompleteInputError{Fields: []string{"age", "ldl"}}

	expected := "incomplete patient data: missing age, ldl"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}

func TestOutOfRangeError(t *testing.T) {
	err := &OutOfRangeError{Fields: []FieldError{
		{Field: "systolic_bp", Value: 300, Min: 90, Max: 220},
		{Field: "hdl", Value: 4, Min: 0.5, Max: 3},
	}}

	expected := "covariates out of range: systolic_bp=300 outside [90, 220]; hdl=4 outside [0.5, 3]"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}

	names := err.FieldNames()
	if len(names) != 2 || names[0] != "systolic_bp" || names[1] != "hdl" {
		t.Errorf("Unexpected field names %v", names)
	}
}

func TestInvalidSelectionError(t *testing.T) {
	err := NewInvalidSelectionError(ErrExclusiveTherapies, "statin_high", "statin_low")

	if !errors.Is(err, ErrExclusiveTherapies) {
		t.Error("Expected errors.Is to match ErrExclusiveTherapies")
	}
	if errors.Is(err, ErrUnknownTherapy) {
		t.Error("Did not expect errors.Is to match ErrUnknownTherapy")
	}

	var target *InvalidSelectionError
	if !errors.As(error(err), &target) {
		t.Fatal("Expected errors.As to find *InvalidSelectionError")
	}
	if len(target.IDs) != 2 {
		t.Errorf("Expected 2 IDs, got %d", len(target.IDs))
	}
}

func TestInvalidInputError(t *testing.T) {
	err := NewInvalidInputError("baseline_ldl", "must be positive", -1, ErrNonPositiveLDL)

	expected := "invalid input for field 'baseline_ldl': must be positive"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, ErrNonPositiveLDL) {
		t.Error("Expected errors.Is to match ErrNonPositiveLDL")
	}
	if err.Value != -1 {
		t.Errorf("Expected value -1, got %v", err.Value)
	}
}

func TestErrorConstants(t *testing.T) {
	expectedValues := map[string]string{
		ErrInvalidInput:     "INVALID_INPUT",
		ErrInvalidSelection: "INVALID_SELECTION",
		ErrValidation:       "VALIDATION_ERROR",
		ErrDatabaseError:    "DATABASE_ERROR",
		ErrRateLimit:        "RATE_LIMIT_EXCEEDED",
		ErrInternalServer:   "INTERNAL_SERVER_ERROR",
	}

	for actual, expected := range expectedValues {
		if actual != expected {
			t.Errorf("Expected %s, got %s", expected, actual)
		}
	}
}
