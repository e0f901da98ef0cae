package handlers

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feather-classroom/feather/feather/types"
)

func testPNG(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(3, 3, color.Black)
	buf := &bytes.Buffer{}
	require.Nil(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestFileUpload(t *testing.T) {
	ts := newTestServer(t)
	created := ts.newSession(t, "teacher1")
	path := ts.URL + "/sessions/" + created.Session.Id + "/images"

	req, err := http.NewRequest("POST", path, bytes.NewReader(testPNG(t)))
	require.Nil(t, err)
	req.Header.Set("Content-Type", "image/png")
	resp, err := http.DefaultClient.Do(req)
	require.Nil(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err = http.NewRequest("POST", path, bytes.NewReader(testPNG(t)))
	require.Nil(t, err)
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set(teacherTokenHeader, created.TeacherToken)
	resp, err = http.DefaultClient.Do(req)
	require.Nil(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	img := types.Image{}
	readJSON(t, resp, &img)
	assert.Equal(t, 40, img.Width)
	assert.Equal(t, 20, img.Height)
	assert.Empty(t, img.Data)

	got := ts.do(t, "GET", "/images/"+img.Id, "ada", "", nil)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "image/jpeg", got.Header.Get("Content-Type"))

	q := ts.do(t, "POST", "/sessions/"+created.Session.Id+"/questions", "teacher1", created.TeacherToken, QuestionRequest{Kind: types.QuestionImage, ImageId: img.Id})
	assert.Equal(t, http.StatusCreated, q.StatusCode)

	q = ts.do(t, "POST", "/sessions/"+created.Session.Id+"/questions", "teacher1", created.TeacherToken, QuestionRequest{Kind: types.QuestionImage})
	assert.Equal(t, http.StatusBadRequest, q.StatusCode)
}

func TestFileUpload_NotAnImage(t *testing.T) {
	ts := newTestServer(t)
	created := ts.newSession(t, "teacher1")

	req, err := http.NewRequest("POST", ts.URL+"/sessions/"+created.Session.Id+"/images", bytes.NewReader([]byte("hello")))
	require.Nil(t, err)
	req.Header.Set(teacherTokenHeader, created.TeacherToken)
	resp, err := http.DefaultClient.Do(req)
	require.Nil(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
