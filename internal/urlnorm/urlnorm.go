// Package urlnorm turns user supplied strings into the canonical absolute
// URL form that is stored and used as the dedup key.
package urlnorm

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultScheme is prepended to inputs that carry no scheme.
const DefaultScheme = "https"

var (
	// ErrEmptyInput is returned for blank input.
	ErrEmptyInput = errors.New("url is required")
	// ErrMalformedURL is returned when the input cannot be read as an absolute URL.
	ErrMalformedURL = errors.New("invalid url format")
)

// schemeRe matches an RFC 3986 scheme followed by "://".
var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)

var validate = validator.New()

// Normalize trims raw, defaults the scheme to https and checks that the
// result has both a scheme and a host. Inputs without a scheme must also
// name an FQDN, an IP or localhost, so bare words are not taken for hosts.
// Equal inputs always produce equal output.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyInput
	}

	defaulted := !schemeRe.MatchString(s)
	if defaulted {
		s = DefaultScheme + "://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", ErrMalformedURL
	}

	if u.Scheme == "" || u.Hostname() == "" {
		return "", ErrMalformedURL
	}
	if defaulted && !validHost(u.Hostname()) {
		return "", ErrMalformedURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	return u.String(), nil
}

func validHost(host string) bool {
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}

	return validate.Var(host, "fqdn|ip") == nil
}
