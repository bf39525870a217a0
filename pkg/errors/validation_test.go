package errors

import (
	"testing"
)

func TestValidation(t *testing.T) {
	ok := Ok()
	if !ok.Valid || ok.Error != "" {
		t.Errorf("Ok() = %+v, want valid with no message", ok)
	}
	if err := ok.Err(ErrCodeInvalidGroupName); err != nil {
		t.Errorf("Ok().Err() = %v, want nil", err)
	}

	bad := Invalid("Group name must be at most %d characters", 50)
	if bad.Valid {
		t.Fatal("Invalid() should not be valid")
	}
	if bad.Error != "Group name must be at most 50 characters" {
		t.Errorf("Error = %q", bad.Error)
	}

	err := bad.Err(ErrCodeInvalidGroupName)
	if !Is(err, ErrCodeInvalidGroupName) {
		t.Errorf("Err() code = %v, want %v", GetCode(err), ErrCodeInvalidGroupName)
	}
	if UserMessage(err) != bad.Error {
		t.Errorf("UserMessage() = %q, want %q", UserMessage(err), bad.Error)
	}
}
