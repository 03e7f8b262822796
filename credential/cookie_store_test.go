package credential

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"
)

func TestCookieStoreMirrorsMetadataOnly(t *testing.T) {
	store, err := NewCookieStore("https://auth.example.com", nil)
	if err != nil {
		t.Fatalf("NewCookieStore failed: %v", err)
	}
	ctx := context.Background()

	if got, err := store.Get(ctx); err != nil || got != nil {
		t.Fatalf("empty store Get = (%v, %v), want (nil, nil)", got, err)
	}

	exp := time.Now().Add(time.Hour)
	if err := store.Set(ctx, &Pair{
		AccessToken:  "secret-access",
		RefreshToken: "secret-refresh",
		TokenKind:    "Bearer",
		ExpiresAt:    exp,
	}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected mirrored metadata")
	}
	if got.AccessToken != "" || got.RefreshToken != "" {
		t.Fatal("cookie store retained raw secrets")
	}
	if got.HasSecrets() {
		t.Fatal("metadata pair must not report secrets")
	}
	if got.TokenKind != "Bearer" || !got.ExpiresAt.Equal(exp) {
		t.Fatalf("metadata mismatch: %+v", got)
	}
}

func TestCookieStoreClearExpiresJarCookies(t *testing.T) {
	store, err := NewCookieStore("https://auth.example.com", nil)
	if err != nil {
		t.Fatalf("NewCookieStore failed: %v", err)
	}
	origin, _ := url.Parse("https://auth.example.com")

	store.Jar().SetCookies(origin, []*http.Cookie{
		{Name: "access_token", Value: "opaque", Path: "/"},
		{Name: "refresh_token", Value: "opaque", Path: "/"},
	})
	if len(store.Jar().Cookies(origin)) == 0 {
		t.Fatal("seed cookies missing")
	}

	if err := store.Set(context.Background(), &Pair{TokenKind: "Bearer", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if got, _ := store.Get(context.Background()); got != nil {
		t.Fatalf("metadata survived Clear: %+v", got)
	}
	if cookies := store.Jar().Cookies(origin); len(cookies) != 0 {
		t.Fatalf("auth cookies survived Clear: %v", cookies)
	}
}

func TestCookieStoreRejectsRelativeOrigin(t *testing.T) {
	if _, err := NewCookieStore("auth.example.com", nil); err == nil {
		t.Fatal("expected error for origin without scheme")
	}
}
