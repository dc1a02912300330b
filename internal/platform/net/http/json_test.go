package http_test

import (
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	perr "phishguard/internal/platform/errors"
	phttp "phishguard/internal/platform/net/http"
)

type echoIn struct {
	URL string `json:"url" validate:"required"`
}

func TestPostJSON_BindsValidatesAndWraps(t *testing.T) {
	r := phttp.AdaptChi(chi.NewRouter())
	phttp.PostJSON(r, "/echo", func(_ *stdhttp.Request, in echoIn) (any, error) {
		if in.URL == "boom" {
			return nil, perr.DBf("write failed")
		}
		return map[string]string{"url": in.URL}, nil
	})
	phttp.GetJSON(r, "/hello", func(*stdhttp.Request) (any, error) { return "hi", nil })

	post := func(body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(stdhttp.MethodPost, "/echo", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.Mux().ServeHTTP(rr, req)
		return rr
	}

	if rr := post(`{"url":"a.com"}`); rr.Code != 200 || !strings.Contains(rr.Body.String(), `"url":"a.com"`) {
		t.Fatalf("ok path => %d %s", rr.Code, rr.Body.String())
	}
	if rr := post(`{"url":""}`); rr.Code != 400 {
		t.Fatalf("missing url => %d", rr.Code)
	}
	if rr := post(`{"url":`); rr.Code != 400 {
		t.Fatalf("broken json => %d", rr.Code)
	}
	if rr := post(`{"url":"boom"}`); rr.Code != 500 {
		t.Fatalf("handler error => %d", rr.Code)
	}

	rr := httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest(stdhttp.MethodGet, "/hello", nil))
	if rr.Code != 200 || !strings.Contains(rr.Body.String(), `"data":"hi"`) {
		t.Fatalf("GET /hello => %d %s", rr.Code, rr.Body.String())
	}
}
