package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/dankrut/callisto-server/internal/model"
)

// SIPCredentials is what a signed-in client needs to register with the
// SIP infrastructure.
type SIPCredentials struct {
	Username string
	Password string
	Domain   string
}

// User exposes per-user derived data, currently only SIP credentials.
type User struct {
	sipDomain string
	sipSecret []byte
}

func NewUser(sipDomain, sipSecret string) *User {
	return &User{sipDomain: sipDomain, sipSecret: []byte(sipSecret)}
}

// SIPCredentials derives deterministic SIP credentials for the identity.
// The password is an HMAC over the user ID so it never needs storing and
// survives restarts.
func (u *User) SIPCredentials(identity model.Identity) SIPCredentials {
	mac := hmac.New(sha256.New, u.sipSecret)
	mac.Write([]byte(identity.ID.String()))
	digest := mac.Sum(nil)

	return SIPCredentials{
		Username: identity.Username,
		Password: hex.EncodeToString(digest[:16]),
		Domain:   u.sipDomain,
	}
}
