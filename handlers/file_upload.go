package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/feather-classroom/feather/config"
)

// FileUpload stores an image for an image question. The image is read from
// the "image" multipart field or, for other content types, from the raw body.
func FileUpload(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("FileUpload", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}
	if _, ok := requireTeacher(rw, req, s); !ok {
		return
	}

	limit := int64(config.MaxUploadMB) << 20
	req.Body = http.MaxBytesReader(rw, req.Body, limit+(1<<20))

	var r io.Reader = req.Body
	if strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/") {
		file, _, err := req.FormFile("image")
		if err != nil {
			writeJSON(rw, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		defer file.Close()
		r = file
	}

	img, err := core.ImageNew(s, r)
	if err != nil {
		writeError(rw, req, err)
		return
	}

	meta := *img
	meta.Data = nil
	writeJSON(rw, http.StatusCreated, meta)
}

func GetImage(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("GetImage", time.Now())

	img, err := core.ImageGet(mux.Vars(req)["imageId"])
	if err != nil {
		writeError(rw, req, err)
		return
	}

	rw.Header().Set("Content-Type", img.ContentType)
	rw.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	rw.Header().Set("Cache-Control", "private, max-age=86400, immutable")
	http.ServeContent(rw, req, img.Id+".jpg", img.CreatedAt, bytes.NewReader(img.Data))
}
