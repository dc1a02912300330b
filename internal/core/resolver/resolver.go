// Package resolver looks up IPv4 addresses for hostnames under a hard deadline
package resolver

import (
	"context"
	"net"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Resolver returns the IPv4 addresses of host as dotted quads
type Resolver interface {
	LookupIPv4(ctx context.Context, host string) ([]string, error)
}

// Options selects the backend and the per lookup deadline
type Options struct {
	// Timeout bounds each lookup; 0 means 2s
	Timeout time.Duration
	// Upstream is a DNS server host[:port] queried directly; empty uses the system resolver
	Upstream string
}

// New builds the configured backend wrapped with dedupe and the deadline
func New(opt Options) Resolver {
	if opt.Timeout <= 0 {
		opt.Timeout = 2 * time.Second
	}
	var inner Resolver = System{}
	if up := strings.TrimSpace(opt.Upstream); up != "" {
		inner = NewUpstream(up, opt.Timeout)
	}
	return &Bounded{inner: inner, timeout: opt.Timeout}
}

// System uses the platform resolver
type System struct{}

// LookupIPv4 asks the Go resolver for ip4 records only
func (System) LookupIPv4(ctx context.Context, host string) ([]string, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			out = append(out, v4.String())
		}
	}
	return out, nil
}

// Bounded shares one in flight lookup per host and caps it at timeout.
// A caller whose ctx ends first gets ctx.Err while the shared lookup runs on
type Bounded struct {
	inner   Resolver
	timeout time.Duration
	group   singleflight.Group
}

// LookupIPv4 implements Resolver
func (b *Bounded) LookupIPv4(ctx context.Context, host string) ([]string, error) {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	ch := b.group.DoChan(host, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer cancel()
		return b.inner.LookupIPv4(lctx, host)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]string), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
