package access

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type AccessControllerRoutes struct {
	Callback string
	SignOut  string
}

// AccessController exposes the auth callback and signout endpoints. Every
// response it produces is a redirect; failures ride along as an encoded
// `error` query parameter, never as a rendered fault.
type AccessController struct {
	Debug        bool
	Logger       Logger
	Coordinator  *ExchangeCoordinator
	Redirects    *RedirectResolver
	Policy       *PersistencePolicy
	Client       IdentityClient
	Config       Config
	Routes       *AccessControllerRoutes
	ActivitySink ActivitySink

	cookieDuration time.Duration
}

type AccessControllerOption func(*AccessController) *AccessController

func WithControllerLogger(logger Logger) AccessControllerOption {
	return func(c *AccessController) *AccessController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerActivitySink(sink ActivitySink) AccessControllerOption {
	return func(c *AccessController) *AccessController {
		c.ActivitySink = normalizeActivitySink(sink)
		return c
	}
}

func NewAccessController(coordinator *ExchangeCoordinator, redirects *RedirectResolver, policy *PersistencePolicy, client IdentityClient, cfg Config, opts ...AccessControllerOption) *AccessController {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	c := &AccessController{
		Logger:       defLogger{},
		Coordinator:  coordinator,
		Redirects:    redirects,
		Policy:       policy,
		Client:       client,
		Config:       cfg,
		ActivitySink: noopActivitySink{},
		Routes: &AccessControllerRoutes{
			Callback: "/auth/callback",
			SignOut:  "/auth/signout",
		},
		cookieDuration: cookieDuration,
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	if c.Coordinator == nil {
		panic("Missing ExchangeCoordinator in access controller...")
	}

	if c.Redirects == nil {
		panic("Missing RedirectResolver in access controller...")
	}

	return c
}

func RegisterAccessRoutes[T any](app router.Router[T], controller *AccessController) {
	app.
		Get(controller.Routes.Callback, controller.Callback).
		SetName("auth-callback.get")

	app.
		Post(controller.Routes.SignOut, controller.SignOut).
		SetName("auth-signout.post")
}

// CallbackRequest is the query payload of the auth callback
type CallbackRequest struct {
	Code string `query:"code" json:"code"`
	Type string `query:"type" json:"type"`
}

// Validate will run validation rules
func (r CallbackRequest) Validate() error {
	// Type stays unvalidated: unknown intent hints mean no recovery intent
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Code,
			validation.Length(1, 2048),
		),
	)
}

func (a *AccessController) Callback(ctx router.Context) error {
	locale := a.Redirects.ResolveLocale(ctx.Cookies(a.Config.GetLocaleCookieName()))

	// providers report their own failures on the callback query; nothing to
	// exchange in that case
	if errCode := ctx.Query("error"); errCode != "" {
		message := ctx.Query("error_description")
		if message == "" {
			message = errCode
		}
		return ctx.Redirect(
			a.Redirects.Resolve(locale, DestinationLogin, WithErrorParam(message)),
			http.StatusTemporaryRedirect,
		)
	}

	payload := CallbackRequest{
		Code: ctx.Query("code"),
		Type: ctx.Query("type"),
	}

	if a.Debug {
		a.Logger.Debug("auth callback payload: %s", print.MaybePrettyJSON(payload))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Warn("invalid callback payload", "error", err)
		return ctx.Redirect(
			a.Redirects.Resolve(locale, DestinationLogin, WithErrorParam("invalid callback request")),
			http.StatusTemporaryRedirect,
		)
	}

	redirect, pair := a.Coordinator.Complete(ctx.Context(), ExchangeRequest{
		Code:   payload.Code,
		Intent: ParseIntent(payload.Type),
		Locale: locale,
	})

	if pair != nil {
		a.setSessionCookies(ctx, pair)
	}

	return ctx.Redirect(redirect.Location, redirect.StatusOr(http.StatusTemporaryRedirect))
}

func (a *AccessController) SignOut(ctx router.Context) error {
	locale := a.Redirects.ResolveLocale(ctx.Cookies(a.Config.GetLocaleCookieName()))

	if token := ctx.Cookies(a.Config.GetAccessCookieName()); token != "" {
		if err := a.Client.SignOut(ctx.Context(), token); err != nil {
			// session cookies are cleared regardless
			a.Logger.Warn("identity signout failed", "error", err)
		}
	}

	recordActivity(ctx.Context(), a.ActivitySink, a.Logger, ActivityEvent{
		EventType: ActivityEventSignOut,
	})

	a.cookieDel(ctx, a.Config.GetAccessCookieName())
	a.cookieDel(ctx, a.Config.GetRefreshCookieName())

	return ctx.Redirect(
		a.Redirects.Resolve(locale, DestinationLogin),
		http.StatusSeeOther,
	)
}

// setSessionCookies queues the exchanged token pair, honoring the persistence
// preference: an opted-out visitor gets session-scoped cookies with every
// other attribute unchanged.
func (a *AccessController) setSessionCookies(ctx router.Context, pair *TokenPair) {
	persistent := a.Policy.Persistent(ctx.Cookies(a.Policy.PreferenceCookieName()))

	var expires time.Time
	if persistent {
		expires = time.Now().Add(a.cookieDuration)
	}

	a.setCookieToken(ctx, a.Config.GetAccessCookieName(), pair.AccessToken, expires)
	a.setCookieToken(ctx, a.Config.GetRefreshCookieName(), pair.RefreshToken, expires)
}

func (a *AccessController) setCookieToken(c router.Context, name, val string, expires time.Time) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   a.Config.GetSecureCookies(),
		SameSite: "Lax",
	})
}

func (a *AccessController) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   a.Config.GetSecureCookies(),
		SameSite: "Lax",
	})
}
