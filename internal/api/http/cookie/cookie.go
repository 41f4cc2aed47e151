// Package cookie owns the two credential slots exchanged with clients.
// Both are HttpOnly: scripts never see credential material.
package cookie

import (
	"net/http"
	"time"
)

// Credential cookie names, stable for interop with the web client.
const (
	AccessToken  = "accessToken"
	RefreshToken = "refreshToken"
)

// Options carry the deployment-dependent cookie attributes.
type Options struct {
	Domain string
	Secure bool
}

// Set writes a credential cookie expiring at the token's own expiry.
func Set(w http.ResponseWriter, name, value string, expires time.Time, o Options) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   o.Domain,
		Expires:  expires,
		Secure:   o.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Delete instructs the client to drop a credential cookie.
func Delete(w http.ResponseWriter, name string, o Options) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   o.Domain,
		MaxAge:   -1,
		Secure:   o.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// DeletePair drops both credential cookies.
func DeletePair(w http.ResponseWriter, o Options) {
	Delete(w, AccessToken, o)
	Delete(w, RefreshToken, o)
}
