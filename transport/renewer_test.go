package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kynetiq/authclient/autherr"
	"github.com/kynetiq/authclient/credential"
)

func seededStore(t *testing.T) *credential.MemoryStore {
	t.Helper()
	store := credential.NewMemoryStore()
	err := store.Set(context.Background(), &credential.Pair{
		AccessToken:  "stale-access",
		RefreshToken: "refresh-1",
		TokenKind:    "Bearer",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func newTestRenewer(t *testing.T, baseURL string, store credential.Store) *Renewer {
	t.Helper()
	r, err := NewRenewer(RenewerConfig{BaseURL: baseURL}, nil, store, nil)
	if err != nil {
		t.Fatalf("NewRenewer failed: %v", err)
	}
	return r
}

func TestRenewSingleFlight(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/refresh" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh_token"] != "refresh-1" {
			t.Errorf("unexpected refresh token %q", body["refresh_token"])
		}
		calls.Add(1)
		<-release
		_ = json.NewEncoder(w).Encode(TokenBundle{
			AccessToken:  "fresh-access",
			RefreshToken: "refresh-2",
			TokenType:    "Bearer",
			ExpiresIn:    3600,
		})
	}))
	defer srv.Close()

	store := seededStore(t)
	renewer := newTestRenewer(t, srv.URL, store)

	shared := atomic.Int64{}
	renewer.SetOutcomeHook(func(ok, wasShared bool) {
		if !ok {
			t.Error("renewal reported failure")
		}
		if wasShared {
			shared.Add(1)
		}
	})

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	pairs := make(chan *credential.Pair, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			pair, err := renewer.Renew(context.Background())
			if err != nil {
				t.Errorf("renew failed: %v", err)
				return
			}
			pairs <- pair
		}()
	}

	// Give every caller time to attach to the in-flight renewal, then let
	// the single network call complete.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(pairs)

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one renewal network call, got %d", got)
	}
	for pair := range pairs {
		if pair.AccessToken != "fresh-access" || pair.RefreshToken != "refresh-2" {
			t.Fatalf("waiter observed stale pair: %+v", pair)
		}
	}

	stored, err := store.Get(context.Background())
	if err != nil || stored == nil || stored.AccessToken != "fresh-access" {
		t.Fatalf("store not updated before resolution: (%+v, %v)", stored, err)
	}
	if shared.Load() == 0 {
		t.Fatal("expected at least one coalesced waiter")
	}
}

func TestRenewRejectionClearsStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "invalid_refresh", "message": "refresh token expired"})
	}))
	defer srv.Close()

	store := seededStore(t)
	renewer := newTestRenewer(t, srv.URL, store)

	_, err := renewer.Renew(context.Background())
	if !errors.Is(err, autherr.ErrRenewalFailed) {
		t.Fatalf("expected renewal failure, got %v", err)
	}
	if pair, _ := store.Get(context.Background()); pair != nil {
		t.Fatalf("store not cleared after failed renewal: %+v", pair)
	}
}

func TestRenewNetworkFailureClearsStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	store := seededStore(t)
	renewer := newTestRenewer(t, srv.URL, store)

	_, err := renewer.Renew(context.Background())
	if !errors.Is(err, autherr.ErrRenewalFailed) {
		t.Fatalf("expected renewal failure, got %v", err)
	}
	if pair, _ := store.Get(context.Background()); pair != nil {
		t.Fatal("store not cleared after network failure")
	}
}

func TestRenewWithoutStoredCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no network call expected without a stored credential")
	}))
	defer srv.Close()

	renewer := newTestRenewer(t, srv.URL, credential.NewMemoryStore())
	if _, err := renewer.Renew(context.Background()); !errors.Is(err, autherr.ErrRenewalFailed) {
		t.Fatalf("expected renewal failure, got %v", err)
	}
}

func TestRenewCarriesForwardUnrotatedRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(TokenBundle{AccessToken: "fresh-access", ExpiresIn: 3600})
	}))
	defer srv.Close()

	store := seededStore(t)
	renewer := newTestRenewer(t, srv.URL, store)

	pair, err := renewer.Renew(context.Background())
	if err != nil {
		t.Fatalf("renew failed: %v", err)
	}
	if pair.RefreshToken != "refresh-1" {
		t.Fatalf("expected old refresh token carried forward, got %q", pair.RefreshToken)
	}
	if pair.TokenKind != "Bearer" {
		t.Fatalf("unexpected token kind %q", pair.TokenKind)
	}
}
