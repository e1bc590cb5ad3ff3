package access

import (
	"net/http"
	"time"
)

// PersistenceFalseSentinel is the only preference value that disables
// persistent sessions. Absence or any other value keeps cookies persistent.
const PersistenceFalseSentinel = "false"

// PersistencePolicy rewrites queued auth cookies to honor the "keep me signed
// in" preference. When the preference is off, auth cookies lose their
// expiry/max-age so the browser scopes them to the session; every other
// attribute, and every unrelated cookie, is left untouched. Applying the
// policy twice is a no-op.
type PersistencePolicy struct {
	preferenceCookie string
	authCookies      map[string]struct{}
}

// NewPersistencePolicy builds the policy from config: the preference cookie
// name plus the access/refresh cookie names it is allowed to rewrite.
func NewPersistencePolicy(cfg Config) *PersistencePolicy {
	return &PersistencePolicy{
		preferenceCookie: cfg.GetPersistenceCookieName(),
		authCookies: map[string]struct{}{
			cfg.GetAccessCookieName():  {},
			cfg.GetRefreshCookieName(): {},
		},
	}
}

// PreferenceCookieName returns the cookie the preference is read from.
func (p *PersistencePolicy) PreferenceCookieName() string {
	return p.preferenceCookie
}

// Persistent maps a preference cookie value to the effective setting.
func (p *PersistencePolicy) Persistent(value string) bool {
	return value != PersistenceFalseSentinel
}

// IsAuthCookie reports whether the named cookie may be rewritten.
func (p *PersistencePolicy) IsAuthCookie(name string) bool {
	_, ok := p.authCookies[name]
	return ok
}

// Apply rewrites the queued cookies in place and returns the slice. With the
// persistent preference nothing changes; otherwise each auth cookie becomes
// session-scoped.
func (p *PersistencePolicy) Apply(persistent bool, cookies []*http.Cookie) []*http.Cookie {
	if persistent {
		return cookies
	}

	for _, c := range cookies {
		if c == nil || !p.IsAuthCookie(c.Name) {
			continue
		}
		c.Expires = time.Time{}
		c.RawExpires = ""
		c.MaxAge = 0
	}

	return cookies
}
