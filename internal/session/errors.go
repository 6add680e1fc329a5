package session

import "errors"

var (
	// ErrNotActive indicates no session occupies the process slot.
	ErrNotActive = errors.New("session.not_active")

	// ErrSessionClosed indicates the session was written or aborted and can no
	// longer be read or modified.
	ErrSessionClosed = errors.New("session.closed")

	// ErrInvalidCookieName indicates the configured cookie name is not a valid
	// cookie token.
	ErrInvalidCookieName = errors.New("session.invalid_cookie_name")

	// ErrInvalidLifetime indicates a negative cookie lifetime.
	ErrInvalidLifetime = errors.New("session.invalid_lifetime")

	// ErrInvalidSameSite indicates an unknown same-site policy.
	ErrInvalidSameSite = errors.New("session.invalid_samesite")

	// ErrInvalidCookieParams indicates path or domain values that cannot be
	// serialized into a Set-Cookie header.
	ErrInvalidCookieParams = errors.New("session.invalid_cookie_params")
)
