package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"phishguard/internal/core/blacklist"
	"phishguard/internal/services/detect/domain"
)

type snaps struct{ s *blacklist.Snapshot }

func (f snaps) Current() *blacklist.Snapshot { return f.s }

type scorer struct {
	p     float64
	calls atomic.Int32
	last  atomic.Value
}

func (f *scorer) Score(u string) float64 {
	f.calls.Add(1)
	f.last.Store(u)
	return f.p
}

type dns struct {
	ips   map[string][]string
	calls atomic.Int32
}

func (f *dns) LookupIPv4(_ context.Context, host string) ([]string, error) {
	f.calls.Add(1)
	if ips, ok := f.ips[host]; ok {
		return ips, nil
	}
	return nil, errors.New("no such host")
}

func snapshot(urls, domains, ips string) *blacklist.Snapshot {
	return blacklist.Build(blacklist.Feeds{
		URLs:    []byte(urls),
		Domains: []byte(domains),
		IPs:     []byte(ips),
	}, 1, time.Now(), blacklist.SourceFeed)
}

func TestCheck_Cascade(t *testing.T) {
	snap := snapshot(
		"https://evil.com/login\nhttp://plain.org/x\n",
		"evil.com\nbad.net\nxn--e1afmkfd.com\nпочта.рф\n",
		"6.6.6.6\n10.0.0.0/8\n",
	)
	res := &dns{ips: map[string][]string{
		"resolves-bad.org":  {"8.8.8.8", "10.1.2.3"},
		"resolves-good.org": {"8.8.8.8"},
	}}

	cases := []struct {
		name string
		url  string
		p    float64
		want domain.Verdict
	}{
		{"exact url after scheme prepend", "evil.com/login", 0.1, domain.Blacklisted(domain.ReasonURL)},
		{"exact url http kept", "http://plain.org/x", 0.1, domain.Blacklisted(domain.ReasonURL)},
		{"url beats domain", "https://evil.com/login", 0.1, domain.Blacklisted(domain.ReasonURL)},
		{"domain", "https://evil.com/other", 0.1, domain.Blacklisted(domain.ReasonDomain)},
		{"domain case folded", "https://BAD.net/", 0.1, domain.Blacklisted(domain.ReasonDomain)},
		{"domain idna", "https://пример.com/", 0.1, domain.Blacklisted(domain.ReasonDomain)},
		{"unicode feed entry", "https://ПОЧТА.рф/inbox", 0.1, domain.Blacklisted(domain.ReasonDomain)},
		{"unicode feed entry punycode url", "xn--80a1acny.xn--p1ai/inbox", 0.1, domain.Blacklisted(domain.ReasonDomain)},
		{"ip literal", "http://6.6.6.6/admin", 0.1, domain.Blacklisted(domain.ReasonIP)},
		{"ip literal in range", "10.9.9.9/x", 0.1, domain.Blacklisted(domain.ReasonIP)},
		{"resolved ip in range", "resolves-bad.org", 0.1, domain.Blacklisted(domain.ReasonIP)},
		{"resolved clean", "resolves-good.org", 0.1, domain.Verdict{Confidence: 0.1, Reason: domain.ReasonClean}},
		{"resolve failure is non match", "unknown.example", 0.2, domain.Verdict{Confidence: 0.2, Reason: domain.ReasonClean}},
		{"classifier above threshold", "fine.example", 0.81, domain.Verdict{IsPhishing: true, Confidence: 0.81, Reason: domain.ReasonClassifier}},
		{"threshold is strict", "fine.example", 0.8, domain.Verdict{Confidence: 0.8, Reason: domain.ReasonClean}},
		{"just above threshold", "fine.example", 0.8000001, domain.Verdict{IsPhishing: true, Confidence: 0.8000001, Reason: domain.ReasonClassifier}},
		{"malformed url still scored", "http://[::1", 0.9, domain.Verdict{IsPhishing: true, Confidence: 0.9, Reason: domain.ReasonClassifier}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc := &scorer{p: tc.p}
			svc := New(snaps{snap}, sc, res, Config{Threshold: 0.8})
			got := svc.Check(context.Background(), tc.url)
			if got != tc.want {
				t.Fatalf("Check(%q)=%+v want %+v", tc.url, got, tc.want)
			}
			if got.Reason == domain.ReasonURL || got.Reason == domain.ReasonDomain || got.Reason == domain.ReasonIP {
				if sc.calls.Load() != 0 {
					t.Fatalf("classifier ran after a blacklist hit")
				}
			}
		})
	}
}

func TestCheck_ScorerSeesNormalizedURL(t *testing.T) {
	sc := &scorer{p: 0.5}
	svc := New(snaps{snapshot("", "", "")}, sc, nil, Config{})
	svc.Check(context.Background(), "example.org/a")
	if got := sc.last.Load(); got != "https://example.org/a" {
		t.Fatalf("scored %v", got)
	}
}

func TestCheck_NoDNSWithoutIPEntries(t *testing.T) {
	res := &dns{}
	svc := New(snaps{snapshot("", "evil.com", "")}, &scorer{p: 0.1}, res, Config{})
	svc.Check(context.Background(), "https://somewhere.example/")
	if res.calls.Load() != 0 {
		t.Fatalf("resolver called %d times with an empty ip set", res.calls.Load())
	}
}

func TestCheck_SnapshotReadOnce(t *testing.T) {
	first := snapshot("", "evil.com", "")
	swap := &swapping{first: first, next: snapshot("", "", "")}
	svc := New(swap, &scorer{p: 0.1}, nil, Config{})
	v := svc.Check(context.Background(), "https://evil.com/")
	if v.Reason != domain.ReasonDomain {
		t.Fatalf("got %+v", v)
	}
	if swap.calls != 1 {
		t.Fatalf("Current called %d times", swap.calls)
	}
}

type swapping struct {
	first, next *blacklist.Snapshot
	calls       int
}

func (s *swapping) Current() *blacklist.Snapshot {
	s.calls++
	if s.calls == 1 {
		return s.first
	}
	return s.next
}

func TestNew_DefaultThreshold(t *testing.T) {
	for _, th := range []float64{0, -1, 1, 2} {
		if got := New(nil, nil, nil, Config{Threshold: th}).Cfg.Threshold; got != 0.8 {
			t.Fatalf("threshold %v defaulted to %v", th, got)
		}
	}
}
