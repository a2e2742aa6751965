package middleware

import (
	"net/http"
)

// MaxBodySize is the default request body cap. The status API only serves
// reads, so anything larger than a small form is rejected.
const MaxBodySize = 64 << 10

// MaxBody rejects requests whose declared body exceeds maxSize and caps the
// bytes handlers can read from any other body. maxSize <= 0 selects
// MaxBodySize.
func MaxBody(maxSize int64) Middleware {
	if maxSize <= 0 {
		maxSize = MaxBodySize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxSize {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxSize)
			}
			next.ServeHTTP(w, r)
		})
	}
}
