package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
)

// CookieManager owns the refresh token cookie. The cookie is HttpOnly,
// Secure and SameSite=None so a browser client on another origin can send
// it with credentialed requests.
type CookieManager struct {
	maxAge time.Duration
}

// NewCookieManager returns a manager whose cookies live for maxAge.
func NewCookieManager(maxAge time.Duration) *CookieManager {
	return &CookieManager{maxAge: maxAge}
}

func (c *CookieManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     common.RefreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

// Attach sets the refresh cookie on the response.
func (c *CookieManager) Attach(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.cookie(token, int(c.maxAge.Seconds())))
}

// Read returns the refresh token from the request, if any.
func (c *CookieManager) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(common.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Clear expires the cookie immediately using the same name and flags it was
// set with, which browsers require to drop it.
func (c *CookieManager) Clear(w http.ResponseWriter) {
	cookie := c.cookie("", -1)
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}
