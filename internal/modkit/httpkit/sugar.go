package httpkit

import (
	"net/http"

	phttp "phishguard/internal/platform/net/http"
)

// GetJSON mounts a body-less handler under GET with the envelope adapter
func GetJSON(r Router, path string, h func(*http.Request) (any, error)) {
	phttp.GetJSON(r, path, h)
}

// PostJSON mounts a bound and validated JSON handler under POST
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.PostJSON(r, path, h)
}
