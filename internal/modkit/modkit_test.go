package modkit

import (
	"net/http"
	"testing"
)

type detectPorts struct{ Name string }

func TestBuild(t *testing.T) {
	mw := func(next http.Handler) http.Handler { return next }
	b := Build(
		WithName("urls"),
		WithPrefix("/urls"),
		WithMiddlewares(mw),
		WithMiddlewares(mw),
		WithPorts(detectPorts{Name: "detect"}),
	)
	if b.Name != "urls" || b.Prefix != "/urls" || len(b.Mw) != 2 {
		t.Fatalf("unexpected build %+v", b)
	}
	if p, ok := b.Ports.(detectPorts); !ok || p.Name != "detect" {
		t.Fatalf("ports %#v", b.Ports)
	}

	if z := Build(); z.Name != "" || z.Mw != nil || z.Ports != nil {
		t.Fatalf("zero build %+v", z)
	}
}
