package module

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"phishguard/internal/core/blacklist"
	"phishguard/internal/core/model"
	"phishguard/internal/modkit"
	"phishguard/internal/modkit/repokit"
	phttp "phishguard/internal/platform/net/http"
)

type snaps struct{ s *blacklist.Snapshot }

func (f snaps) Current() *blacklist.Snapshot { return f.s }

type manifest struct{}

func (manifest) Manifest() model.Manifest {
	return model.Manifest{Version: "v7", EmbeddingDim: 8, HiddenDim: 4, Layers: 2, MaxLen: 200}
}

type pingDB struct {
	repokit.TxRunner
	err error
}

func (p pingDB) Ping(context.Context) error { return p.err }

func get(t *testing.T, m modkit.Module, path string) map[string]any {
	t.Helper()
	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(stdhttp.MethodGet, path, nil))
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("%s: status %d", path, rr.Code)
	}
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	return env.Data
}

func TestMetaEndpoints(t *testing.T) {
	snap := blacklist.Build(blacklist.Feeds{Domains: []byte("a.com\nb.com")}, 4, time.Now(), blacklist.SourceFeed)
	m := New(modkit.Deps{PG: pingDB{}}, modkit.WithPorts(Ports{Blacklist: snaps{snap}, Model: manifest{}}))

	if d := get(t, m, "/meta/health"); d["ok"] != true || d["service"] != "phishguard-api" {
		t.Fatalf("health %v", d)
	}
	if d := get(t, m, "/meta/ready"); d["status"] != "ok" {
		t.Fatalf("ready %v", d)
	}
	if d := get(t, m, "/meta/blacklist"); d["generation"] != 4.0 || d["domains"] != 2.0 || d["source"] != "feed" {
		t.Fatalf("blacklist %v", d)
	}
	if d := get(t, m, "/meta/model"); d["version"] != "v7" || d["hidden_dim"] != 4.0 {
		t.Fatalf("model %v", d)
	}
	if d := get(t, m, "/meta/version"); d["service"] == nil {
		t.Fatalf("version %v", d)
	}
}

func TestReadyStates(t *testing.T) {
	empty := blacklist.NewStore(nil, nil)

	m := New(modkit.Deps{PG: pingDB{err: errors.New("refused")}}, modkit.WithPorts(Ports{Blacklist: empty}))
	if d := get(t, m, "/meta/ready"); d["status"] != "fail" {
		t.Fatalf("pg down should fail readiness: %v", d)
	}

	m = New(modkit.Deps{PG: pingDB{}}, modkit.WithPorts(Ports{Blacklist: empty}))
	if d := get(t, m, "/meta/ready"); d["status"] != "degraded" {
		t.Fatalf("empty blacklist should degrade: %v", d)
	}

	m = New(modkit.Deps{})
	if d := get(t, m, "/meta/ready"); d["status"] != "degraded" {
		t.Fatalf("nothing wired: %v", d)
	}
}
