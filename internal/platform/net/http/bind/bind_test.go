package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "phishguard/internal/platform/errors"
)

type checkOne struct {
	URL    string `json:"url" validate:"notblank"`
	APIKey string `json:"api_key" validate:"required"`
}

type checkList struct {
	URLs   []string `json:"urls" validate:"required,min=1,dive,notblank"`
	APIKey string   `json:"api_key" validate:"required"`
}

func req(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestParseJSON_Success(t *testing.T) {
	got, err := ParseJSON[checkOne](req(`{"url":"a.com","api_key":"k"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.URL != "a.com" || got.APIKey != "k" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseJSON_DecodeFailures(t *testing.T) {
	cases := map[string]string{
		"empty":    "",
		"broken":   `{"url":`,
		"unknown":  `{"url":"a","api_key":"k","extra":1}`,
		"trailing": `{"url":"a","api_key":"k"} {}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJSON[checkOne](req(body))
			if perr.CodeOf(err) != perr.ErrorCodeJSON {
				t.Fatalf("want JSON error, got %v (%v)", perr.CodeOf(err), err)
			}
		})
	}
}

func TestParseJSON_AllowEmptyBody(t *testing.T) {
	type opt struct {
		Note string `json:"note"`
	}
	got, err := ParseJSON[opt](httptest.NewRequest(http.MethodPost, "/", http.NoBody), JSONOptions{AllowEmptyBody: true})
	if err != nil || got != (opt{}) {
		t.Fatalf("got %+v err %v", got, err)
	}
}

func TestParseJSON_MaxBytes(t *testing.T) {
	_, err := ParseJSON[checkOne](req(`{"url":"a.com","api_key":"k"}`), JSONOptions{MaxBytes: 8})
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("truncated body should fail decode, got %v", err)
	}
}

func TestParseJSON_Validation(t *testing.T) {
	_, err := ParseJSON[checkOne](req(`{"url":"   ","api_key":"k"}`))
	if perr.CodeOf(err) != perr.ErrorCodeValidation {
		t.Fatalf("want validation, got %v", err)
	}
	if w := perr.WireFrom(err); w.Field != "url" || !strings.Contains(w.Message, "blank") {
		t.Fatalf("wire %+v", w)
	}

	_, err = ParseJSON[checkList](req(`{"urls":[],"api_key":"k"}`))
	if w := perr.WireFrom(err); w.Field != "urls" || w.Message != "urls must be at least 1" {
		t.Fatalf("empty list wire %+v", w)
	}

	_, err = ParseJSON[checkList](req(`{"urls":["a.com",""],"api_key":"k"}`))
	if perr.CodeOf(err) != perr.ErrorCodeValidation {
		t.Fatalf("blank element should fail, got %v", err)
	}
}

func TestValidationFieldAndMessage(t *testing.T) {
	if f, m := ValidationFieldAndMessage(nil); f != "" || m != "" {
		t.Fatalf("nil => %q %q", f, m)
	}
	err := Get().Validator.Struct(checkOne{URL: "x"})
	f, m := ValidationFieldAndMessage(err)
	if f != "api_key" || m == "" {
		t.Fatalf("got %q %q", f, m)
	}
}
