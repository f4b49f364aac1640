package session

import (
	"net"
	"strings"
)

// isProductionHost reports whether the request host is a public one.
// Loopback and private-LAN hosts get cookies without the Secure flag so
// local development over plain HTTP keeps its session.
func isProductionHost(host string) bool {
	h := host
	if splitHost, _, err := net.SplitHostPort(host); err == nil {
		h = splitHost
	}

	if h == "" || strings.EqualFold(h, "localhost") {
		return false
	}

	if ip := net.ParseIP(strings.Trim(h, "[]")); ip != nil {
		return !ip.IsLoopback() && !ip.IsPrivate()
	}

	return true
}
