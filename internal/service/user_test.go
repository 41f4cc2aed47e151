package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_SIPCredentials(t *testing.T) {
	svc := NewUser("sip.example.com", "topsecret")
	identity := testIdentity()

	creds := svc.SIPCredentials(identity)
	assert.Equal(t, identity.Username, creds.Username)
	assert.Equal(t, "sip.example.com", creds.Domain)
	assert.Len(t, creds.Password, 32)

	// Deterministic per user, different across users.
	again := svc.SIPCredentials(identity)
	assert.Equal(t, creds.Password, again.Password)

	other := svc.SIPCredentials(testIdentity())
	assert.NotEqual(t, creds.Password, other.Password)
}

func TestUser_SIPCredentials_SecretMatters(t *testing.T) {
	identity := testIdentity()

	a := NewUser("sip.example.com", "secret-a").SIPCredentials(identity)
	b := NewUser("sip.example.com", "secret-b").SIPCredentials(identity)
	assert.NotEqual(t, a.Password, b.Password)
}
