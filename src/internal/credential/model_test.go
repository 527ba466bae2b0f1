package credential

import (
	"testing"
	"time"
)

func TestCredentialIsValid(t *testing.T) {
	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		cred Credential
		want bool
	}{
		{"fresh", Credential{ValidUntil: now.Add(time.Minute)}, true},
		{"at expiry instant", Credential{ValidUntil: now}, true},
		{"expired", Credential{ValidUntil: now.Add(-time.Second)}, false},
		{"locked", Credential{ValidUntil: now.Add(time.Hour), Locked: true}, false},
	}

	for _, tc := range cases {
		if got := tc.cred.IsValid(now); got != tc.want {
			t.Errorf("%s: IsValid = %v, want %v", tc.name, got, tc.want)
		}
	}
}
