// Package blacklist holds the phishing feed sets and swaps them atomically on refresh
package blacklist

import (
	"bufio"
	"bytes"
	"net"
	"strings"
	"time"

	"github.com/yl2chen/cidranger"

	"phishguard/internal/core/urlnorm"
)

// Feed file names under the feed base URL and in the cache dir
const (
	DomainsFile = "phishing-domains-ACTIVE.txt"
	IPsFile     = "phishing-IPs-ACTIVE.txt"
	URLsFile    = "phishing-links-ACTIVE.txt"
)

// Source tells where a snapshot's bytes came from
type Source string

const (
	SourceNone  Source = "none"
	SourceFeed  Source = "feed"
	SourceCache Source = "cache"
)

// Feeds are the raw bodies of one fetch cycle
type Feeds struct {
	Domains []byte
	IPs     []byte
	URLs    []byte
}

type set map[string]struct{}

// Snapshot is one immutable generation of the three sets plus the CIDR table
type Snapshot struct {
	urls    set
	domains set
	ips     set
	ranges  cidranger.Ranger
	nRanges int

	Generation uint64
	FetchedAt  time.Time
	Source     Source
}

// Stats summarizes a snapshot for the meta endpoint and logs
type Stats struct {
	Generation uint64    `json:"generation"`
	FetchedAt  time.Time `json:"fetched_at"`
	Source     Source    `json:"source"`
	URLs       int       `json:"urls"`
	Domains    int       `json:"domains"`
	IPs        int       `json:"ips"`
	Ranges     int       `json:"ranges"`
}

func empty() *Snapshot {
	return &Snapshot{
		urls:    set{},
		domains: set{},
		ips:     set{},
		ranges:  cidranger.NewPCTrieRanger(),
		Source:  SourceNone,
	}
}

// Build parses feeds into a new snapshot.
// URL lines are kept verbatim after trimming; domain lines get the same ASCII
// mapping as checked hostnames; IP lines are lowercased.
// IP lines written as a.b.c.d/n go into the range table
func Build(f Feeds, gen uint64, at time.Time, src Source) *Snapshot {
	s := empty()
	s.Generation, s.FetchedAt, s.Source = gen, at, src

	eachLine(f.URLs, func(l string) { s.urls[l] = struct{}{} })
	eachLine(f.Domains, func(l string) { s.domains[urlnorm.ASCIIHost(l)] = struct{}{} })
	eachLine(f.IPs, func(l string) {
		l = strings.ToLower(l)
		if !strings.Contains(l, "/") {
			s.ips[l] = struct{}{}
			return
		}
		_, ipNet, err := net.ParseCIDR(l)
		if err != nil {
			return
		}
		if err := s.ranges.Insert(cidranger.NewBasicRangerEntry(*ipNet)); err == nil {
			s.nRanges++
		}
	})
	return s
}

// eachLine calls fn for every trimmed, non blank, non comment line of b
func eachLine(b []byte, fn func(string)) {
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		l := strings.TrimSpace(sc.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		fn(l)
	}
}

// HasURL reports an exact match on the URL set
func (s *Snapshot) HasURL(u string) bool {
	_, ok := s.urls[u]
	return ok
}

// HasDomain reports an exact match of a hostname already passed through urlnorm.ASCIIHost
func (s *Snapshot) HasDomain(host string) bool {
	_, ok := s.domains[host]
	return ok
}

// HasIP reports whether ip is listed literally or falls inside a listed range
func (s *Snapshot) HasIP(ip string) bool {
	if _, ok := s.ips[ip]; ok {
		return true
	}
	if s.nRanges == 0 {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	hit, err := s.ranges.Contains(parsed)
	return err == nil && hit
}

// HasIPEntries reports whether any IP or range is listed, so callers can skip DNS
func (s *Snapshot) HasIPEntries() bool { return len(s.ips) > 0 || s.nRanges > 0 }

// Stats returns set sizes and provenance
func (s *Snapshot) Stats() Stats {
	return Stats{
		Generation: s.Generation,
		FetchedAt:  s.FetchedAt,
		Source:     s.Source,
		URLs:       len(s.urls),
		Domains:    len(s.domains),
		IPs:        len(s.ips),
		Ranges:     s.nRanges,
	}
}
