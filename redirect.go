package access

import (
	"net/url"
	"sort"
	"strings"
)

// Locale is a supported UI locale code
type Locale = string

const (
	LocaleEnglish Locale = "en"
	LocaleSpanish Locale = "es"
	LocaleGerman  Locale = "de"
	LocaleFrench  Locale = "fr"
)

// DefaultLocales is the reference deployment's supported set.
var DefaultLocales = []Locale{LocaleEnglish, LocaleSpanish, LocaleGerman, LocaleFrench}

// Destination names a redirect target. The set is closed: callers can never
// supply a raw path, which keeps user input out of the Location header.
type Destination string

const (
	DestinationLogin        Destination = "login"
	DestinationDashboard    Destination = "dashboard"
	DestinationProfileSetup Destination = "profile-setup"
	DestinationRecovery     Destination = "recovery-completion"
)

type destinationTarget struct {
	path  string
	query url.Values
}

var destinationTargets = map[Destination]destinationTarget{
	DestinationLogin:        {path: "login"},
	DestinationDashboard:    {path: "dashboard"},
	DestinationProfileSetup: {path: "profile", query: url.Values{"setup": []string{"true"}}},
	DestinationRecovery:     {path: "reset-password"},
}

// RedirectOption appends a single query parameter to a resolved destination.
type RedirectOption func(url.Values)

// WithErrorParam carries a human-readable failure message.
func WithErrorParam(message string) RedirectOption {
	return func(q url.Values) {
		if message != "" {
			q.Set("error", message)
		}
	}
}

// WithMessageParam carries an informational message.
func WithMessageParam(message string) RedirectOption {
	return func(q url.Values) {
		if message != "" {
			q.Set("message", message)
		}
	}
}

// RedirectResolver computes locale-prefixed destination URLs from the closed
// destination set.
type RedirectResolver struct {
	origin        string
	locales       map[Locale]struct{}
	defaultLocale Locale
}

// NewRedirectResolver builds a resolver from config. An empty supported set
// falls back to the reference deployment locales.
func NewRedirectResolver(cfg Config) *RedirectResolver {
	supported := cfg.GetSupportedLocales()
	if len(supported) == 0 {
		supported = DefaultLocales
	}

	locales := make(map[Locale]struct{}, len(supported))
	for _, l := range supported {
		locales[l] = struct{}{}
	}

	def := cfg.GetDefaultLocale()
	if _, ok := locales[def]; !ok {
		def = LocaleEnglish
	}

	return &RedirectResolver{
		origin:        strings.TrimRight(cfg.GetOrigin(), "/"),
		locales:       locales,
		defaultLocale: def,
	}
}

// ResolveLocale maps a locale-preference cookie value to a supported locale,
// defaulting when the value is missing or unrecognized.
func (r *RedirectResolver) ResolveLocale(cookieValue string) Locale {
	if _, ok := r.locales[cookieValue]; ok {
		return cookieValue
	}
	return r.defaultLocale
}

// DefaultLocale returns the fixed fallback locale.
func (r *RedirectResolver) DefaultLocale() Locale {
	return r.defaultLocale
}

// Resolve produces `${origin}/${locale}/${path}` for a named destination. An
// unknown destination resolves to login, never to caller input.
func (r *RedirectResolver) Resolve(locale Locale, dest Destination, opts ...RedirectOption) string {
	target, ok := destinationTargets[dest]
	if !ok {
		target = destinationTargets[DestinationLogin]
	}

	query := url.Values{}
	for k, vs := range target.query {
		for _, v := range vs {
			query.Add(k, v)
		}
	}

	for _, opt := range opts {
		if opt != nil {
			opt(query)
		}
	}

	var b strings.Builder
	b.WriteString(r.origin)
	b.WriteString("/")
	b.WriteString(r.ResolveLocale(locale))
	b.WriteString("/")
	b.WriteString(target.path)

	if len(query) > 0 {
		b.WriteString("?")
		b.WriteString(encodeQuery(query))
	}

	return b.String()
}

// encodeQuery renders values with %20 for spaces, matching what browsers and
// the portal frontend produce, instead of url.Values.Encode's form-style "+".
func encodeQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteString("&")
			}
			b.WriteString(queryEscape(k))
			b.WriteString("=")
			b.WriteString(queryEscape(v))
		}
	}
	return b.String()
}

func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
