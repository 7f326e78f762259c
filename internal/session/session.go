package session

import (
	"context"
	"net/http"
)

// CurrentUserProvider yields the identifier of the user owning the cart.
// The second return is false when no identity could be resolved.
type CurrentUserProvider interface {
	Email(ctx context.Context) (string, bool)
}

type contextKey int

const emailKey contextKey = iota

// ContextWithEmail stamps a resolved session email onto the context.
func ContextWithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey, email)
}

// EmailFromContext reads the session email placed by the middleware.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	if !ok || email == "" {
		return "", false
	}
	return email, true
}

// ContextProvider resolves the user from the request context, where the
// session middleware put the authenticated email.
type ContextProvider struct{}

func (ContextProvider) Email(ctx context.Context) (string, bool) {
	return EmailFromContext(ctx)
}

// Static always answers with a fixed email. Used in tests and tooling.
type Static string

func (s Static) Email(context.Context) (string, bool) {
	return string(s), s != ""
}

// Chain tries each provider in order and returns the first hit. This is
// the session-then-cookie fallback: an authenticated session email wins,
// otherwise the client-side persisted identifier is used.
type Chain []CurrentUserProvider

func (c Chain) Email(ctx context.Context) (string, bool) {
	for _, p := range c {
		if email, ok := p.Email(ctx); ok {
			return email, true
		}
	}
	return "", false
}

const (
	// SessionHeader carries the auth provider's verified email, set by the
	// fronting auth layer.
	SessionHeader = "X-Session-Email"

	// FallbackCookie is the client-side persisted identifier written at
	// sign-in, consulted when no authenticated session is present.
	FallbackCookie = "storevia_uid"
)

// Middleware resolves the current user from the request and stores it on
// the context. Resolution order: verified session header, then fallback
// cookie, else anonymous (no email on context).
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if email := r.Header.Get(SessionHeader); email != "" {
			next.ServeHTTP(w, r.WithContext(ContextWithEmail(r.Context(), email)))
			return
		}
		if cookie, err := r.Cookie(FallbackCookie); err == nil && cookie.Value != "" {
			next.ServeHTTP(w, r.WithContext(ContextWithEmail(r.Context(), cookie.Value)))
			return
		}
		next.ServeHTTP(w, r)
	})
}
