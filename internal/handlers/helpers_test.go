package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// formBody encodes fields as a plain urlencoded form.
func formBody(fields map[string]string) (*strings.Reader, string) {
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	return strings.NewReader(values.Encode()), "application/x-www-form-urlencoded"
}

// multipartBody encodes fields, repeated fields, and attachments the way a
// browser submits them. Attachment map is filename -> content; the field name
// is always "files".
func multipartBody(t *testing.T, fields map[string]string, repeated map[string][]string, attachments map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for k, vs := range repeated {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	for name, content := range attachments {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

// serve runs the request through the router as the given authenticated user.
func serve(router chi.Router, req *http.Request, userID, role string) *httptest.ResponseRecorder {
	req = req.WithContext(middleware.WithUser(req.Context(), userID, role))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func dataField(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", body)
	return data
}
