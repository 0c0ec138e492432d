package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
		reused  bool
	}{
		{name: "missing id is minted", inbound: "", reused: false},
		{name: "valid uuid is reused", inbound: "9f1c1c2e-43a7-4a6f-9d5b-0a4a1f2b3c4d", reused: true},
		{name: "garbage id is replaced", inbound: "not-a-uuid", reused: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.inbound != "" {
				req.Header.Set("X-Request-ID", tc.inbound)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if seen == "" {
				t.Fatal("no request id in context")
			}
			if uuid.Validate(seen) != nil {
				t.Fatalf("request id %q is not a uuid", seen)
			}
			if tc.reused && seen != tc.inbound {
				t.Fatalf("id = %q, want inbound %q reused", seen, tc.inbound)
			}
			if !tc.reused && seen == tc.inbound {
				t.Fatal("invalid inbound id was trusted")
			}
			if rec.Header().Get("X-Request-ID") != seen {
				t.Fatal("response header does not echo the request id")
			}
		})
	}
}
