package auth

import (
	"errors"
	"testing"
)

func TestNewStaticProvider(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		wantErr bool
	}{
		{"valid with display name", []string{"asha:secret:Asha Kumar"}, false},
		{"valid without display name", []string{"asha:secret"}, false},
		{"missing password", []string{"asha"}, true},
		{"empty username", []string{":secret:Asha"}, true},
		{"empty password", []string{"asha::Asha"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStaticProvider(tt.entries)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewStaticProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	provider, err := NewStaticProvider([]string{"asha:secret:Asha Kumar", "ravi:hunter2"})
	if err != nil {
		t.Fatalf("NewStaticProvider() error = %v", err)
	}

	identity, err := provider.Verify("asha", "secret")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if identity.Username != "asha" || identity.Name != "Asha Kumar" {
		t.Errorf("Verify() = %+v, want asha / Asha Kumar", identity)
	}

	// Display name defaults to the username.
	identity, err = provider.Verify("ravi", "hunter2")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if identity.Name != "ravi" {
		t.Errorf("default display name = %q, want %q", identity.Name, "ravi")
	}

	if _, err := provider.Verify("asha", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := provider.Verify("nobody", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", err)
	}
}
