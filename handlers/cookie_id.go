package handlers

import (
	"net/http"
	"regexp"

	"github.com/rs/xid"

	"github.com/feather-classroom/feather/config"
)

// clientHeader lets non-browser clients (the Go SDK, the load tester) present
// their persistent client id without a cookie jar.
const clientHeader = "X-Feather-Client"

var clientIdFilter = regexp.MustCompile(`^[0-9A-Za-z_-]{1,64}$`)

type CookieID struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

func (c *CookieID) SetCookie(rw http.ResponseWriter) error {
	if encoded, err := config.SecureCookie.Encode("id", c); err == nil {
		cookie := &http.Cookie{
			Name:     "id",
			Value:    encoded,
			Path:     "/",
			Secure:   config.UseLetsEncrypt,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		http.SetCookie(rw, cookie)
	} else {
		return err
	}
	return nil
}

func ReadCookie(r *http.Request) (*CookieID, error) {
	if cookie, err := r.Cookie("id"); err == nil {
		value := &CookieID{}
		if err = config.SecureCookie.Decode("id", cookie.Value, &value); err == nil {
			return value, nil
		} else {
			return nil, err
		}
	} else {
		return nil, err
	}
}

// ClientId returns the persistent id of the requesting client, minting one
// (and the cookie that keeps it) on first visit. A signed cookie wins over the
// client header, which is only a claim.
func ClientId(rw http.ResponseWriter, req *http.Request) string {
	if cookie, err := ReadCookie(req); err == nil && cookie.Id != "" {
		return cookie.Id
	}
	if id := req.Header.Get(clientHeader); clientIdFilter.MatchString(id) {
		return id
	}

	cookie := &CookieID{Id: xid.New().String()}
	if err := cookie.SetCookie(rw); err != nil {
		logError(req, "Could not set id cookie", err)
	}
	return cookie.Id
}
