package privacy

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Guard is an http.RoundTripper that enforces the current privacy mode
// on outbound requests and records every attempt in the network log.
// Collaborators that talk to the network (the download manager, remote
// providers) build their clients on top of it, so nothing leaves the
// device without an audit entry.
type Guard struct {
	store *Store
	next  http.RoundTripper
}

// NewGuard wraps next (http.DefaultTransport when nil).
func NewGuard(store *Store, next http.RoundTripper) *Guard {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Guard{store: store, next: next}
}

// Client returns an http.Client whose transport is this guard.
func (g *Guard) Client() *http.Client {
	return &http.Client{Transport: g}
}

// BlockedError is returned for requests the current mode forbids.
type BlockedError struct {
	Mode Mode
	URL  string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("privacy: %s mode blocked request to %s", e.Mode, e.URL)
}

func (g *Guard) RoundTrip(req *http.Request) (*http.Response, error) {
	mode := g.store.Mode()
	blocked, reason := g.verdict(mode, req.URL.Scheme, req.URL.Hostname())

	g.store.LogNetworkAttempt(LogEntry{
		Type:    entryTypeForScheme(req.URL.Scheme),
		URL:     req.URL.String(),
		Blocked: blocked,
		Reason:  reason,
	})

	if blocked {
		return nil, &BlockedError{Mode: mode, URL: req.URL.String()}
	}
	return g.next.RoundTrip(req)
}

func (g *Guard) verdict(mode Mode, scheme, host string) (blocked bool, reason string) {
	switch mode {
	case ModeLocalOnly:
		return true, "local-only mode blocks all network access"
	case ModeTrustedNetwork:
		if isPrivateHost(host) {
			return false, ""
		}
		return true, "trusted-network mode blocks non-local hosts"
	default:
		return false, ""
	}
}

func entryTypeForScheme(scheme string) EntryType {
	switch strings.ToLower(scheme) {
	case "ws", "wss":
		return EntryWebSocket
	default:
		return EntryFetch
	}
}

// isPrivateHost reports whether host names the local machine or a
// private network address. Hostnames are not resolved; anything that is
// neither localhost nor a private/loopback IP literal counts as public.
func isPrivateHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".local") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
