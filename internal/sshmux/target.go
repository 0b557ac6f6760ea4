// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sshmux

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

// scp-like syntax: [user@]host:path, with no scheme.
var scpLike = regexp.MustCompile(`^(?:([^@/:]+)@)?([^@/:]+):`)

// Target is the ssh endpoint of a remote URL.
type Target struct {
	User string
	Host string
	Port string
}

// Key identifies the connection. Masters are shared per host and port.
func (t Target) Key() string {
	port := t.Port
	if port == "" {
		port = "22"
	}

	return net.JoinHostPort(t.Host, port)
}

// Destination is the ssh destination argument.
func (t Target) Destination() string {
	if t.User == "" {
		return t.Host
	}

	return t.User + "@" + t.Host
}

// ParseTarget extracts the ssh endpoint from ssh:// and scp-like URLs.
func ParseTarget(raw string) (Target, bool) {
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme != "ssh" || u.Hostname() == "" {
			return Target{}, false
		}

		return Target{User: u.User.Username(), Host: u.Hostname(), Port: u.Port()}, true
	}

	m := scpLike.FindStringSubmatch(raw)
	if m == nil {
		return Target{}, false
	}

	return Target{User: m[1], Host: m[2]}, true
}
