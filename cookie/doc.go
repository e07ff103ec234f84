// Package cookie holds the session cookie attributes and synthesizes the
// cookie metadata record express-session expects to find inside every stored
// session under the "cookie" key:
//
//	{"originalMaxAge": 86400000, "httpOnly": true, "domain": "", "path": "/", "expires": "2026-10-17T12:00:00Z"}
//
// Without this record the Node.js side fails in Store.createSession when it
// reads sess.cookie.expires.
//
// The package also builds the outgoing *http.Cookie and reads incoming cookie
// values, undoing the percent-encoding express applies to "s:" identifiers.
package cookie
