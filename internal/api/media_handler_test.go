package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heimdex/heimdex-editor/internal/media"
)

func TestMediaFile_ServesPooledFile(t *testing.T) {
	h := newHarness(t)
	h.editor.Pool().Add(h.present, media.Properties{})

	req := httptest.NewRequest(http.MethodGet, "/media/file?path="+url.QueryEscape(h.present), nil)
	req.RemoteAddr = "127.0.0.1:40000"
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Range", "bytes=1-3")
	rr := httptest.NewRecorder()
	NewRouter(h.cfg).ServeHTTP(rr, req)

	require.Equal(t, http.StatusPartialContent, rr.Code)
	assert.Equal(t, "ide", rr.Body.String())
	assert.Equal(t, "bytes 1-3/5", rr.Header().Get("Content-Range"))
}

func TestMediaFile_RejectsUnpooledPath(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, http.MethodGet, "/media/file?path="+url.QueryEscape(h.present), nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_IN_POOL", decodeJSONBody(t, rr)["code"])

	rr = h.do(t, http.MethodGet, "/media/file", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
