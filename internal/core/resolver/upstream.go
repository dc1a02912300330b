package resolver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// Upstream sends A queries straight to one DNS server, retrying over TCP on truncation
type Upstream struct {
	addr string
	udp  *dns.Client
	tcp  *dns.Client
}

// NewUpstream accepts host or host:port, defaulting the port to 53
func NewUpstream(server string, timeout time.Duration) *Upstream {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &Upstream{
		addr: server,
		udp:  &dns.Client{Net: "udp", Timeout: timeout, UDPSize: 4096},
		tcp:  &dns.Client{Net: "tcp", Timeout: timeout},
	}
}

// LookupIPv4 implements Resolver
func (u *Upstream) LookupIPv4(ctx context.Context, host string) ([]string, error) {
	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(host), dns.TypeA)
	req.RecursionDesired = true
	req.SetEdns0(4096, false)

	resp, _, err := u.udp.ExchangeContext(ctx, req, u.addr)
	if err == nil && resp.Truncated {
		resp, _, err = u.tcp.ExchangeContext(ctx, req, u.addr)
	}
	if err != nil {
		return nil, err
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%s: %s", host, dns.RcodeToString[resp.Rcode])
	}

	var out []string
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			out = append(out, a.A.String())
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no A records", host)
	}
	return out, nil
}
