package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChain_ResolutionOrder(t *testing.T) {
	ctx := context.Background()

	email, ok := Chain{Static("jo@example.com"), Static("cookie@example.com")}.Email(ctx)
	assert.True(t, ok)
	assert.Equal(t, "jo@example.com", email)

	email, ok = Chain{Static(""), Static("cookie@example.com")}.Email(ctx)
	assert.True(t, ok)
	assert.Equal(t, "cookie@example.com", email)

	_, ok = Chain{Static(""), Static("")}.Email(ctx)
	assert.False(t, ok)
}

func resolveThrough(r *http.Request) (string, bool) {
	var email string
	var ok bool
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok = EmailFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), r)
	return email, ok
}

func TestMiddleware_SessionHeaderWins(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(SessionHeader, "jo@example.com")
	r.AddCookie(&http.Cookie{Name: FallbackCookie, Value: "cookie@example.com"})

	email, ok := resolveThrough(r)
	assert.True(t, ok)
	assert.Equal(t, "jo@example.com", email)
}

func TestMiddleware_CookieFallback(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: FallbackCookie, Value: "cookie@example.com"})

	email, ok := resolveThrough(r)
	assert.True(t, ok)
	assert.Equal(t, "cookie@example.com", email)
}

func TestMiddleware_Anonymous(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	_, ok := resolveThrough(r)
	assert.False(t, ok)
}
