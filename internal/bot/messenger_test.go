package bot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayMessenger_Send(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get(RelayTokenHeader))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m := NewRelayMessenger(srv.URL, "secret", 5*time.Second)
	require.NoError(t, m.Send(context.Background(), "42", "hello"))
	assert.Equal(t, sendRequest{Recipient: "42", Text: "hello"}, got)
}

func TestRelayMessenger_SendDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/document", r.URL.Path)
		assert.Equal(t, "42", r.FormValue("recipient"))
		f, hdr, err := r.FormFile("document")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, AuditFileName, hdr.Filename)
		assert.Equal(t, "line\n", string(body))
	}))
	defer srv.Close()

	m := NewRelayMessenger(srv.URL, "", 5*time.Second)
	require.NoError(t, m.SendDocument(context.Background(), "42", AuditFileName, strings.NewReader("line\n")))
}

func TestRelayMessenger_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chat blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewRelayMessenger(srv.URL, "", 5*time.Second).Send(context.Background(), "42", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
