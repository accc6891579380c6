package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
)

// ErrProxyFormat is returned for proxy strings that are not of the form
// scheme://[user:pass@]host:port.
var ErrProxyFormat = errors.New("unrecognized proxy format")

var proxyRegexp = regexp.MustCompile(`^(https?)://(?:([^:@/]+):([^:@/]+)@)?([^:@/]+):(\d+)/?$`)

// Proxy is a parsed HTTP(S) proxy address.
type Proxy struct {
	Scheme   string
	Host     string
	Port     int
	Username string
	Password string
}

// ParseProxy parses raw into a Proxy.
func ParseProxy(raw string) (*Proxy, error) {
	m := proxyRegexp.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrProxyFormat, raw)
	}
	port, err := strconv.Atoi(m[5])
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: bad port in %q", ErrProxyFormat, raw)
	}
	return &Proxy{
		Scheme:   m[1],
		Username: m[2],
		Password: m[3],
		Host:     m[4],
		Port:     port,
	}, nil
}

// URL returns the proxy as a URL suitable for http.ProxyURL.
func (p *Proxy) URL() *url.URL {
	u := &url.URL{
		Scheme: p.Scheme,
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u
}

// String renders the proxy with the password masked.
func (p *Proxy) String() string {
	hostPort := net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	if p.Username == "" {
		return p.Scheme + "://" + hostPort
	}
	return p.Scheme + "://" + p.Username + ":****@" + hostPort
}
