package handlers

import (
	"net/http"
	"time"
)

type Me struct {
	Id   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// LoggedInUser returns the persistent client id, minting it on first visit.
func LoggedInUser(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("LoggedInUser", time.Now())

	me := Me{Id: ClientId(rw, req)}
	if cookie, err := ReadCookie(req); err == nil && cookie.Id == me.Id {
		me.Name = cookie.Name
	}
	writeJSON(rw, http.StatusOK, me)
}
