package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipcheck/internal/domain"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func runCheck(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"check"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func upstream(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return -1
}

func TestCheck_CanShipJSON(t *testing.T) {
	url := upstream(t, http.StatusOK, `{"result":{"canShip":true,"message":"OK to ship"}}`)
	path := writeFile(t, "item.svg", []byte("<svg/>"))

	out, err := runCheck(t, path, "--url", url, "--json", "--lang", "ar")
	require.NoError(t, err)

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, domain.PhaseSucceeded, snap.Phase)
	assert.Equal(t, domain.LanguageArabic, snap.Language)
	assert.Equal(t, &domain.Verdict{CanShip: true, Message: "OK to ship"}, snap.Verdict)
}

func TestCheck_CannotShip(t *testing.T) {
	url := upstream(t, http.StatusOK, `{"result":{"canShip":false,"message":"Lithium batteries"}}`)
	path := writeFile(t, "item.svg", []byte("<svg/>"))

	out, err := runCheck(t, path, "--url", url)
	assert.Equal(t, exitCannotShip, exitCode(err))
	assert.Contains(t, out, "Cannot Ship")
	assert.Contains(t, out, "Lithium batteries")
}

func TestCheck_ServerError(t *testing.T) {
	url := upstream(t, http.StatusInternalServerError, `{"error":"model unavailable"}`)
	path := writeFile(t, "item.svg", []byte("<svg/>"))

	out, err := runCheck(t, path, "--url", url)
	assert.Equal(t, exitFailed, exitCode(err))
	assert.Contains(t, out, "model unavailable")
}

func TestCheck_UnsupportedFile(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("hello"))

	out, err := runCheck(t, path, "--url", "http://127.0.0.1:1")
	assert.Equal(t, exitFailed, exitCode(err))
	assert.Contains(t, out, "Unsupported file format")
}

func TestCheck_BadLanguage(t *testing.T) {
	path := writeFile(t, "item.svg", []byte("<svg/>"))

	_, err := runCheck(t, path, "--lang", "fr")
	require.Error(t, err)
	assert.Equal(t, -1, exitCode(err))
	assert.True(t, strings.Contains(err.Error(), "unsupported language"))
}

func TestMediaType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "image/jpeg", mediaType("a.jpg", nil))
	assert.Equal(t, "image/png", mediaType("a.png", nil))
	assert.Equal(t, "image/svg+xml", mediaType("a.svg", nil))
	assert.Equal(t, "image/png", mediaType("noext", []byte("\x89PNG\r\n\x1a\n0000")))
}

func TestRenderSnapshot(t *testing.T) {
	t.Parallel()

	out := renderSnapshot(domain.Snapshot{
		Language:  domain.LanguageEnglish,
		Candidate: &domain.Candidate{Name: "box.jpg", MediaType: "image/jpeg", Size: 2 << 20},
		Verdict:   &domain.Verdict{CanShip: true, Message: "Fine"},
	}, false)

	assert.Contains(t, out, "box.jpg")
	assert.Contains(t, out, "2.0 MiB")
	assert.Contains(t, out, "Can Ship")
	assert.Contains(t, out, "Fine")
	assert.NotContains(t, out, "\x1b[")
}
