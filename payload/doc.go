// Package payload translates session data between its in-process form and the
// UTF-8 JSON bytes shared with the other runtime through the session store.
//
// The in-process form is [Payload], a map of string keys to JSON-shaped values:
// nil, bool, string, numbers, []any and map[string]any. Numbers read back from
// the store are [encoding/json.Number] so integers wider than 53 bits survive a
// round trip unchanged. FromStore(ToStore(p)) equals p for every payload whose
// numbers are already json.Number; use [Normalize] to bring Go-typed numbers
// into that form.
//
// Values JSON cannot carry (NaN, ±Inf, invalid UTF-8, channels, funcs, structs)
// are rejected with [ErrUnsupportedValue] rather than silently coerced.
package payload
