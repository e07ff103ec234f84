package middleware

import (
	"errors"
	"net"
	"net/http"
	"sync"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/cookie"
)

// ErrorHandler writes the response when a session cannot be loaded or saved.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type options struct {
	onError           ErrorHandler
	saveUninitialized bool
	rolling           bool
}

// Option configures Session.
type Option func(*options)

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(o *options) { o.onError = fn }
}

// WithSaveUninitialized controls whether a new session that holds nothing but
// its cookie record is stored and sent. Default true.
func WithSaveUninitialized(save bool) Option {
	return func(o *options) { o.saveUninitialized = save }
}

// WithRolling re-sends the cookie on every response, restarting its expiry.
func WithRolling(rolling bool) Option {
	return func(o *options) { o.rolling = rolling }
}

// DefaultErrorHandler answers 503 for store failures and 500 otherwise.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	if errors.Is(err, goSession.ErrStoreUnavailable) {
		http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "session error", http.StatusInternalServerError)
}

// Session loads the request's session before next runs and saves it before
// the first byte of the response.
func Session(h *goSession.Handler, opts ...Option) func(http.Handler) http.Handler {
	o := options{
		onError:           DefaultErrorHandler,
		saveUninitialized: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if ip := clientIP(r); ip != "" {
				ctx = goSession.WithClientIP(ctx, ip)
			}

			value, _ := cookie.Value(r, h.CookieName())
			s, err := h.Start(ctx, value)
			if err != nil {
				o.onError(w, r, err)
				return
			}

			r = r.WithContext(goSession.NewContext(ctx, s))
			sw := &sessionWriter{ResponseWriter: w, h: h, r: r, s: s, opts: &o}
			next.ServeHTTP(sw, r)
			sw.commit()
		})
	}
}

// sessionWriter commits the session before the header goes out so the
// Set-Cookie header can still be added.
type sessionWriter struct {
	http.ResponseWriter
	h    *goSession.Handler
	r    *http.Request
	s    *goSession.Session
	opts *options

	once    sync.Once
	aborted bool
}

func (w *sessionWriter) WriteHeader(code int) {
	w.commit()
	if w.aborted {
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.commit()
	if w.aborted {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *sessionWriter) commit() {
	w.once.Do(func() {
		s := w.s
		if s.Destroyed() {
			if !s.IsNew {
				http.SetCookie(w.ResponseWriter, w.h.ClearCookie())
			}
			return
		}
		if s.IsNew && !w.opts.saveUninitialized && uninitialized(s) {
			// A forged cookie would otherwise be replayed on every request.
			if s.Tampered {
				http.SetCookie(w.ResponseWriter, w.h.ClearCookie())
			}
			return
		}

		if err := w.h.Save(w.r.Context(), s); err != nil {
			w.opts.onError(w.ResponseWriter, w.r, err)
			w.aborted = true
			return
		}
		if s.IsNew || w.opts.rolling {
			http.SetCookie(w.ResponseWriter, w.h.Cookie(s))
		}
	})
}

func uninitialized(s *goSession.Session) bool {
	for k := range s.Values {
		if k != cookie.MetadataKey {
			return false
		}
	}
	return true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
