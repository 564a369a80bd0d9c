package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorageServer(t *testing.T) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/hello", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "hello")
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var c models.Credentials
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Password != "pw" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		writeJSON(w, http.StatusOK, models.AuthResponse{
			Token: "abc", Type: "Bearer", ID: 7, Username: c.Username, Email: c.Username + "@example.org",
		})
	})
	mux.HandleFunc("GET /api/files", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Full authentication is required"})
			return
		}
		writeJSON(w, http.StatusOK, sampleFiles())
	})

	mux.HandleFunc("DELETE /api/files/{name}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted " + r.PathValue("name")})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type cliRunner struct {
	t       *testing.T
	dataDir string
	server  string
}

func (r cliRunner) run(stdin string, args ...string) (string, error) {
	r.t.Helper()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(append([]string{"--data-dir", r.dataDir, "--server", r.server, "--online-interval", "1h"}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t,
		[]string{"register", "login", "logout", "whoami", "ls", "upload", "download", "rm", "shell"},
		names)

	for _, flag := range []string{"server", "data-dir", "timeout", "concurrency", "config", "metrics-addr"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCmd_SessionSurvivesRuns(t *testing.T) {
	stubPassword(t, "pw")
	srv := newStorageServer(t)
	r := cliRunner{t: t, dataDir: t.TempDir(), server: srv.URL + "/api"}

	_, err := r.run("", "ls")
	require.EqualError(t, err, ErrNotLoggedIn.Error())

	out, err := r.run("", "login", "-u", "ann")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ann")

	out, err = r.run("", "ls", "--sort", "date", "--desc")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "notes.txt")

	_, err = r.run("", "login", "-u", "bob")
	require.EqualError(t, err, ErrAlreadyLoggedIn.Error())

	out, err = r.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Username: ann")
	assert.Contains(t, out, "Email:    ann@example.org")

	out, err = r.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = r.run("", "whoami")
	require.EqualError(t, err, ErrNotLoggedIn.Error())
}

func TestRootCmd_UploadNothingIsNotAFailure(t *testing.T) {
	stubPassword(t, "pw")
	srv := newStorageServer(t)
	r := cliRunner{t: t, dataDir: t.TempDir(), server: srv.URL + "/api"}

	_, err := r.run("", "login", "-u", "ann")
	require.NoError(t, err)

	out, err := r.run("", "upload", "/no/such/file.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "Skipping /no/such/file.txt")
	assert.Contains(t, out, "No files to upload")
}

func TestRootCmd_LoginRejected(t *testing.T) {
	stubPassword(t, "wrong")
	srv := newStorageServer(t)
	r := cliRunner{t: t, dataDir: t.TempDir(), server: srv.URL + "/api"}

	_, err := r.run("", "login", "-u", "ann")
	require.EqualError(t, err, "Bad credentials")

	_, err = r.run("", "ls")
	require.EqualError(t, err, ErrNotLoggedIn.Error())
}

func TestRootCmd_ServerDown(t *testing.T) {
	stubPassword(t, "pw")
	srv := newStorageServer(t)
	url := srv.URL + "/api"
	srv.Close()

	r := cliRunner{t: t, dataDir: t.TempDir(), server: url}
	_, err := r.run("", "login", "-u", "ann")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "server unavailable: "), err.Error())
}

func TestRootCmd_Shell(t *testing.T) {
	stubPassword(t, "pw")
	lines := captureOutput(t)
	srv := newStorageServer(t)
	r := cliRunner{t: t, dataDir: t.TempDir(), server: srv.URL + "/api"}

	out, err := r.run("help\nlogin ann\nls\nrm 1\ny\nexit\n", "shell")
	require.NoError(t, err)

	assert.Contains(t, out, "Welcome to gophdrive")
	assert.Contains(t, out, "Not logged in.")
	assert.Contains(t, out, "Logged in as ann")
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, `Are you sure you want to delete "report.pdf"? [y/N]`)
	assert.Contains(t, out, "Deleted a1-report.pdf")

	assert.Contains(t, *lines, "gophdrive (online)> ")
	assert.Contains(t, *lines, "gophdrive (ann online)> ")
	assert.Contains(t, *lines, helpLoggedOut)
	assert.Contains(t, *lines, "Bye!")
	assert.NotContains(t, *lines, "Unknown command: y")
}

func TestLineSource(t *testing.T) {
	src := lineSource{bufio.NewReader(strings.NewReader("one\ntwo"))}
	buf := make([]byte, 64)

	n, err := src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(buf[:n]))

	n, err = src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "two", string(buf[:n]))

	_, err = src.Read(buf)
	require.ErrorIs(t, err, io.EOF)
}
