package hash

import (
	"strings"
	"testing"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "SecurePass123!", false},
		{"minimum length", "Pass123!", false},
		{"too short", "short", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Hash(tt.password)
			if tt.wantErr {
				if err == nil {
					t.Error("Hash() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Hash() unexpected error = %v", err)
			}
			if h == tt.password {
				t.Error("Hash() returned unhashed password")
			}
			if !strings.HasPrefix(h, "$2a$12$") {
				t.Errorf("Hash() invalid bcrypt format, got = %s", h[:10])
			}
		})
	}
}

func TestCompare(t *testing.T) {
	h, err := Hash("MySecurePassword123!")
	if err != nil {
		t.Fatalf("Failed to generate hash: %v", err)
	}

	if err := Compare(h, "MySecurePassword123!"); err != nil {
		t.Errorf("Compare() unexpected error = %v", err)
	}
	if err := Compare(h, "WrongPassword"); err == nil {
		t.Error("Compare() expected error for wrong password")
	}
	if err := Compare(h, "mysecurepassword123!"); err == nil {
		t.Error("Compare() must be case sensitive")
	}
}
