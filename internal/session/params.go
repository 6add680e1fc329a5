package session

import (
	"errors"
	"fmt"
	"go-sessiond/internal/config"
	"net/http"
	"strings"
	"time"
)

// CookieParams mirrors the session cookie configuration in effect. The
// middleware reads it when it writes the cookie, never earlier.
type CookieParams struct {
	Name string
	// Lifetime of the cookie. Zero means the cookie lasts until the browser
	// is closed and no Expires attribute is sent.
	Lifetime time.Duration
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	// SameSite is omitted from the cookie when it is http.SameSiteDefaultMode.
	SameSite http.SameSite
}

// DefaultCookieParams returns the parameters used when nothing is configured.
func DefaultCookieParams() CookieParams {
	return CookieParams{
		Name:     "SESSID",
		Path:     "/",
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ParamsFromConfig converts the session section of the configuration.
func ParamsFromConfig(cfg config.SessionConfig) (CookieParams, error) {
	sameSite, err := ParseSameSite(cfg.CookieSameSite)
	if err != nil {
		return CookieParams{}, err
	}
	p := CookieParams{
		Name:     cfg.Name,
		Lifetime: time.Duration(cfg.CookieLifetime) * time.Second,
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		HTTPOnly: cfg.CookieHTTPOnly,
		SameSite: sameSite,
	}
	if err := p.Validate(); err != nil {
		return CookieParams{}, err
	}
	return p, nil
}

// ParseSameSite parses "Lax", "Strict" or "None", ignoring case. An empty
// string selects the browser default.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return http.SameSiteDefaultMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSameSite, s)
}

// Validate reports whether p can produce a well-formed Set-Cookie header.
func (p CookieParams) Validate() error {
	if p.Lifetime < 0 {
		return ErrInvalidLifetime
	}
	switch p.SameSite {
	case http.SameSiteDefaultMode, http.SameSiteLaxMode, http.SameSiteStrictMode, http.SameSiteNoneMode:
	default:
		return ErrInvalidSameSite
	}
	probe := &http.Cookie{Name: p.Name, Value: "probe", Path: p.Path, Domain: p.Domain}
	if err := probe.Valid(); err != nil {
		if p.Name == "" || (&http.Cookie{Name: p.Name}).String() == "" {
			return ErrInvalidCookieName
		}
		return errors.Join(ErrInvalidCookieParams, err)
	}
	return nil
}

// Cookie builds the session cookie carrying id. Expires is now+Lifetime, or
// left unset for a browser-session cookie.
func (p CookieParams) Cookie(id string, now time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     p.Name,
		Value:    id,
		Path:     p.Path,
		Domain:   p.Domain,
		Secure:   p.Secure,
		HttpOnly: p.HTTPOnly,
		SameSite: p.SameSite,
	}
	if p.Lifetime > 0 {
		c.Expires = now.Add(p.Lifetime)
	}
	return c
}
