package handlers

import (
	"net/http"
	"strconv"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 512

// JoinQRCode renders the join url of the session so students can scan it
// from the projector.
func JoinQRCode(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("JoinQRCode", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}

	size := qrSize
	if v, err := strconv.Atoi(req.URL.Query().Get("size")); err == nil && v >= 64 && v <= 2048 {
		size = v
	}

	png, err := qrcode.Encode(joinURL(s), qrcode.Medium, size)
	if err != nil {
		writeError(rw, req, err)
		return
	}

	rw.Header().Set("Content-Type", "image/png")
	rw.Write(png)
}
