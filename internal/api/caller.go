package api

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/bot"
)

// CallerHeader names the caller on behalf of which the relay is acting.
const CallerHeader = "X-Caller-ID"

// relayAuthorized reports whether r carries the configured relay token.
// With no token configured nothing is trusted.
func relayAuthorized(r *http.Request, token string) bool {
	got := r.Header.Get(bot.RelayTokenHeader)
	return token != "" && subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

// callerOf resolves the identity used for access control and rate limiting.
// Direct clients are keyed by address.
func callerOf(r *http.Request, token string) string {
	if id := strings.TrimSpace(r.Header.Get(CallerHeader)); id != "" && relayAuthorized(r, token) {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
