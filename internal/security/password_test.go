package security

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Abcdef1!")

	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if hash == "Abcdef1!" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if err := CheckPassword(hash, "Abcdef1!"); err != nil {
		t.Fatalf("CheckPassword rejected the matching password: %v", err)
	}

	if err := CheckPassword(hash, "Abcdef1?"); err == nil {
		t.Fatalf("CheckPassword accepted a wrong password")
	}
}

func TestValidateStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Abcdef1!", false},
		{"valid long", "Sup3r-Secret-Passphrase", false},
		{"too short", "Ab1!", true},
		{"no upper", "abcdef1!", true},
		{"no lower", "ABCDEF1!", true},
		{"no digit", "Abcdefg!", true},
		{"no symbol", "Abcdefg1", true},
		{"empty", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStrength(tc.password)

			if tc.wantErr && err == nil {
				t.Fatalf("expected rejection for %q", tc.password)
			}

			if !tc.wantErr && err != nil {
				t.Fatalf("expected %q to pass, got %v", tc.password, err)
			}
		})
	}
}
