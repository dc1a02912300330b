package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	perr "phishguard/internal/platform/errors"
	phttp "phishguard/internal/platform/net/http"
	"phishguard/internal/services/api/urls/domain"
	detectdom "phishguard/internal/services/detect/domain"
)

type fakeSvc struct {
	gotList domain.ListInput
	err     error
}

func (f *fakeSvc) One(_ context.Context, in domain.OneInput) (detectdom.Verdict, error) {
	if f.err != nil {
		return detectdom.Verdict{}, f.err
	}
	return detectdom.Verdict{Confidence: 0.42, Reason: detectdom.ReasonClean}, nil
}

func (f *fakeSvc) List(_ context.Context, in domain.ListInput) ([]detectdom.Verdict, error) {
	f.gotList = in
	out := make([]detectdom.Verdict, len(in.URLs))
	for i := range out {
		out[i] = detectdom.Blacklisted(detectdom.ReasonURL)
	}
	return out, f.err
}

func (f *fakeSvc) History(context.Context, domain.HistoryInput) (domain.History, error) {
	return domain.History{AppName: "shop", HistoryURLs: []string{}}, f.err
}

func serve(t *testing.T, svc domain.ServicePort, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), svc)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(rr, req)

	var env map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v body=%s", err, rr.Body.String())
	}
	return rr, env
}

func TestOne_WireShape(t *testing.T) {
	rr, env := serve(t, &fakeSvc{}, "/one", `{"url":"example.org","api_key":"k"}`)
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("status %d body=%s", rr.Code, rr.Body.String())
	}
	data := env["data"].(map[string]any)
	if data["is_phishing"] != false || data["confidence_level"] != 0.42 || data["reason"] != "All checks are ok!" {
		t.Fatalf("data %v", data)
	}
}

func TestOne_Validation(t *testing.T) {
	rr, env := serve(t, &fakeSvc{}, "/one", `{"url":"example.org","api_key":"  "}`)
	if rr.Code != stdhttp.StatusBadRequest || env["field"] != "api_key" {
		t.Fatalf("status %d env %v", rr.Code, env)
	}
	rr, _ = serve(t, &fakeSvc{}, "/one", `{"url":"example.org","api_key":"k","extra":1}`)
	if rr.Code != stdhttp.StatusBadRequest {
		t.Fatalf("unknown field accepted: %d", rr.Code)
	}
}

func TestOne_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{perr.NotFoundf("App doesn't find!"), stdhttp.StatusNotFound},
		{perr.TooManyf("day limit of 3 requests reached"), stdhttp.StatusTooManyRequests},
		{perr.DBf("database error occurred"), stdhttp.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr, env := serve(t, &fakeSvc{err: tc.err}, "/one", `{"url":"x","api_key":"k"}`)
		if rr.Code != tc.want || env["error"] == nil {
			t.Fatalf("%v: status %d env %v", tc.err, rr.Code, env)
		}
	}
}

func TestList_PassesURLsInOrder(t *testing.T) {
	svc := &fakeSvc{}
	rr, env := serve(t, svc, "/list", `{"urls":["a","b","c"],"api_key":"k"}`)
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if got := strings.Join(svc.gotList.URLs, ","); got != "a,b,c" {
		t.Fatalf("urls %q", got)
	}
	if n := len(env["data"].([]any)); n != 3 {
		t.Fatalf("verdicts %d", n)
	}

	rr, _ = serve(t, svc, "/list", `{"urls":[],"api_key":"k"}`)
	if rr.Code != stdhttp.StatusBadRequest {
		t.Fatalf("empty batch status %d", rr.Code)
	}
}

func TestHistory(t *testing.T) {
	rr, env := serve(t, &fakeSvc{}, "/history", `{"token":"k","start_dt":"2026-01-01"}`)
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if env["data"].(map[string]any)["app_name"] != "shop" {
		t.Fatalf("env %v", env)
	}
}
