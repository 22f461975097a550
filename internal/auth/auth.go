package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"bizbook/internal/core"
)

// ErrInvalidCredentials is returned for unknown users and wrong passwords
// alike, so callers cannot tell the two apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Provider verifies credentials and yields the identity stamped onto records.
type Provider interface {
	Verify(username, password string) (core.Identity, error)
}

type staticUser struct {
	password string
	name     string
}

// StaticProvider verifies against a fixed user table loaded from config.
type StaticProvider struct {
	users map[string]staticUser
}

// NewStaticProvider parses "username:password:Display Name" entries. The
// display name may contain colons; the first two fields may not.
func NewStaticProvider(entries []string) (*StaticProvider, error) {
	users := make(map[string]staticUser, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("malformed user entry %q, want user:pass:Display Name", entry)
		}
		name := parts[0]
		if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
			name = strings.TrimSpace(parts[2])
		}
		users[parts[0]] = staticUser{password: parts[1], name: name}
	}
	return &StaticProvider{users: users}, nil
}

func (p *StaticProvider) Verify(username, password string) (core.Identity, error) {
	user, ok := p.users[username]
	// Compare even for unknown users to keep timing uniform.
	expected := user.password
	if subtle.ConstantTimeCompare([]byte(expected), []byte(password)) != 1 || !ok {
		return core.Identity{}, ErrInvalidCredentials
	}
	return core.Identity{Username: username, Name: user.name}, nil
}
