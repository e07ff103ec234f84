package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/sid"
	"github.com/MrEthical07/goSession/store/memstore"
)

var secret = []byte("middleware-test-secret-0123456789")

func newHandler(t *testing.T) (*goSession.Handler, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	h, err := goSession.New().WithSecret(secret).WithStore(st).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h, st
}

func counter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := goSession.FromContext(r.Context())
		if !ok {
			http.Error(w, "no session", http.StatusInternalServerError)
			return
		}
		if n, ok := s.Get("n"); ok {
			s.Set("n", fmt.Sprint(n)+"+")
		} else {
			s.Set("n", 1)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == goSession.DefaultCookieName {
			return c
		}
	}
	return nil
}

func TestSessionIssuesCookieAndPersists(t *testing.T) {
	h, st := newHandler(t)
	mw := Session(h)(counter())

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	c := sessionCookie(t, rec)
	if c == nil {
		t.Fatal("no session cookie set")
	}
	if !h.Verify(c.Value) {
		t.Fatalf("cookie value %q does not verify", c.Value)
	}
	if st.Len() != 1 {
		t.Fatalf("expected 1 stored session, got %d", st.Len())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sessionCookie(t, rec) != nil {
		t.Fatal("cookie re-sent for existing session")
	}

	p, err := h.Read(context.Background(), c.Value)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if p["n"] != "1+" {
		t.Fatalf("expected n=1+, got %v", p["n"])
	}
}

func TestSessionTamperedCookieGetsFreshSession(t *testing.T) {
	h, _ := newHandler(t)
	mw := Session(h)(counter())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: goSession.DefaultCookieName, Value: sid.Format("victim", []byte("forged"))})
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	c := sessionCookie(t, rec)
	if c == nil {
		t.Fatal("expected replacement cookie")
	}
	if sid.ExtractRawID(c.Value) == "victim" {
		t.Fatal("tampered identifier reused")
	}
}

func TestSessionTamperedCookieClearedWhenNotSavingUninitialized(t *testing.T) {
	h, st := newHandler(t)
	mw := Session(h, WithSaveUninitialized(false))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: goSession.DefaultCookieName, Value: sid.Format("victim", []byte("forged"))})
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	c := sessionCookie(t, rec)
	if c == nil {
		t.Fatal("tampered cookie neither cleared nor replaced")
	}
	if c.Value != "" || c.MaxAge >= 0 {
		t.Fatalf("expected a clearing cookie, got %+v", c)
	}
	if st.Len() != 0 {
		t.Fatalf("uninitialized session was stored")
	}
}

func TestSessionStoreFailureIs503(t *testing.T) {
	h, err := goSession.New().WithSecret(secret).WithStore(brokenStore{}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer h.Close()

	called := false
	mw := Session(h)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: goSession.DefaultCookieName, Value: sid.Format("abc", secret)})
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if called {
		t.Fatal("next ran without a session")
	}
}

func TestSessionSaveFailureReplacesResponse(t *testing.T) {
	h, err := goSession.New().WithSecret(secret).WithStore(brokenStore{}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer h.Close()

	mw := Session(h)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("should not be sent"))
	}))
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if sessionCookie(t, rec) != nil {
		t.Fatal("cookie sent for unsaved session")
	}
}

func TestSessionSaveUninitializedFalse(t *testing.T) {
	h, st := newHandler(t)
	mw := Session(h, WithSaveUninitialized(false))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if st.Len() != 0 || sessionCookie(t, rec) != nil {
		t.Fatal("uninitialized session was saved")
	}
}

func TestSessionInvalidateClearsCookie(t *testing.T) {
	h, st := newHandler(t)
	login := Session(h)(counter())
	rec := httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	c := sessionCookie(t, rec)

	logout := Session(h)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := goSession.FromContext(r.Context())
		if err := h.Invalidate(r.Context(), s); err != nil {
			t.Errorf("Invalidate: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	logout.ServeHTTP(rec, req)

	cleared := sessionCookie(t, rec)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("expected clearing cookie, got %+v", cleared)
	}
	if st.Len() != 0 {
		t.Fatalf("expected empty store, got %d", st.Len())
	}
}

func TestSessionRollingResendsCookie(t *testing.T) {
	h, _ := newHandler(t)
	mw := Session(h, WithRolling(true))(counter())

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	c := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	if again := sessionCookie(t, rec); again == nil || again.Value != c.Value {
		t.Fatalf("expected same cookie re-sent, got %+v", again)
	}
}

type brokenStore struct{}

var errDown = errors.New("connection refused")

func (brokenStore) Read(context.Context, string) ([]byte, error)                { return nil, errDown }
func (brokenStore) Write(context.Context, string, []byte, time.Duration) error { return errDown }
func (brokenStore) Destroy(context.Context, string) error                      { return errDown }
func (brokenStore) Close() error                                               { return nil }
