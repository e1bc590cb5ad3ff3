// Package persistware applies the session-persistence policy at the edge: it
// runs after the handler and rewrites the auth cookies queued on the response
// when the visitor opted out of staying signed in. It works on the concrete
// engine because the policy needs access to already-queued Set-Cookie headers.
package persistware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/goliatone/go-access"
)

// Config holds the middleware options.
type Config struct {
	// Policy decides which cookies are rewritten; required.
	Policy *access.PersistencePolicy

	// Filter skips the middleware when it returns true (optional).
	Filter func(*fiber.Ctx) bool
}

// New returns a fiber handler enforcing the persistence preference on every
// authenticated response. Rewriting an already session-scoped cookie is a
// no-op, so stacking the middleware is harmless.
func New(config Config) fiber.Handler {
	if config.Policy == nil {
		panic("persistware: Config.Policy is required")
	}

	return func(c *fiber.Ctx) error {
		if config.Filter != nil && config.Filter(c) {
			return c.Next()
		}

		err := c.Next()

		pref := c.Cookies(config.Policy.PreferenceCookieName())
		if config.Policy.Persistent(pref) {
			return err
		}

		rewriteAuthCookies(c.Response(), config.Policy)
		return err
	}
}

// rewriteAuthCookies strips expiry and max-age from every queued auth cookie,
// keeping all other attributes and every unrelated cookie intact.
func rewriteAuthCookies(resp *fasthttp.Response, policy *access.PersistencePolicy) {
	var targets [][]byte

	resp.Header.VisitAllCookie(func(key, value []byte) {
		if policy.IsAuthCookie(string(key)) {
			targets = append(targets, append([]byte(nil), value...))
		}
	})

	for _, raw := range targets {
		cookie := fasthttp.AcquireCookie()
		if err := cookie.ParseBytes(raw); err != nil {
			fasthttp.ReleaseCookie(cookie)
			continue
		}

		cookie.SetExpire(fasthttp.CookieExpireUnlimited)
		cookie.SetMaxAge(0)

		// SetCookie replaces the queued header entry with the same name
		resp.Header.SetCookie(cookie)
		fasthttp.ReleaseCookie(cookie)
	}
}
