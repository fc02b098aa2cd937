package auth

import (
	"testing"
	"time"
)

func TestNewSecrets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		access, refresh string
		accessTTL       time.Duration
		refreshTTL      time.Duration
		wantErr         bool
	}{
		{"ok", "a", "r", time.Minute, time.Hour, false},
		{"missing access", "", "r", time.Minute, time.Hour, true},
		{"missing refresh", "a", "", time.Minute, time.Hour, true},
		{"equal", "same", "same", time.Minute, time.Hour, true},
		{"zero ttl", "a", "r", 0, time.Hour, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSecrets(tt.access, tt.refresh, tt.accessTTL, tt.refreshTTL)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSecrets err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (s.AccessTTL() != tt.accessTTL || s.RefreshTTL() != tt.refreshTTL) {
				t.Fatalf("ttl mismatch: %v %v", s.AccessTTL(), s.RefreshTTL())
			}
		})
	}
}

func TestSecrets_KeysAreCopies(t *testing.T) {
	t.Parallel()

	s, err := NewSecrets("access", "refresh", time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	k := s.accessKey()
	k[0] = 'X'
	if string(s.accessKey()) != "access" {
		t.Fatalf("secret was mutated through returned key")
	}
}
