package session

import (
	"encoding/json"
	"net/http"
	"testing"

	"go.uber.org/goleak"
)

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// verifyNone checks for goroutines leaked by the machine. Keep-alive
// connections left by the HTTP tests in this package are ignored.
func verifyNone(t *testing.T) {
	t.Helper()
	goleak.VerifyNone(t,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreAnyFunction("net/http.(*conn).serve"),
	)
}
