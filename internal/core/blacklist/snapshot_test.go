package blacklist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildParsesLines(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := Build(Feeds{
		URLs:    []byte("# header\nhttp://Malicious.com/Login\n\n  https://x.org/a  \nhttp://Malicious.com/Login\n"),
		Domains: []byte("Evil.COM\r\nbad.net\n#comment\n"),
		IPs:     []byte("1.2.3.4\n10.0.0.0/8\nnot-a-cidr/99\n 5.6.7.8 \n"),
	}, 3, at, SourceFeed)

	assert.True(t, s.HasURL("http://Malicious.com/Login"), "urls kept verbatim")
	assert.False(t, s.HasURL("http://malicious.com/login"))
	assert.True(t, s.HasURL("https://x.org/a"), "urls trimmed")

	assert.True(t, s.HasDomain("evil.com"), "domains lowercased, CRLF trimmed")
	assert.True(t, s.HasDomain("bad.net"))
	assert.False(t, s.HasDomain("#comment"))

	assert.True(t, s.HasIP("1.2.3.4"))
	assert.True(t, s.HasIP("5.6.7.8"))
	assert.True(t, s.HasIP("10.200.3.4"), "inside CIDR")
	assert.False(t, s.HasIP("11.0.0.1"))
	assert.False(t, s.HasIP("garbage"))
	assert.True(t, s.HasIPEntries())

	st := s.Stats()
	assert.Equal(t, Stats{Generation: 3, FetchedAt: at, Source: SourceFeed, URLs: 2, Domains: 2, IPs: 2, Ranges: 1}, st)
}

func TestBuildMapsUnicodeDomainsToASCII(t *testing.T) {
	s := Build(Feeds{Domains: []byte("пример.com\nПОЧТА.рф\n")}, 1, time.Now(), SourceFeed)

	assert.True(t, s.HasDomain("xn--e1afmkfd.com"))
	assert.True(t, s.HasDomain("xn--80a1acny.xn--p1ai"))
	assert.False(t, s.HasDomain("пример.com"), "lookups use the ASCII form")
}

func TestEmptySnapshot(t *testing.T) {
	s := empty()
	assert.False(t, s.HasURL("x"))
	assert.False(t, s.HasDomain("x"))
	assert.False(t, s.HasIP("1.1.1.1"))
	assert.False(t, s.HasIPEntries())
	assert.Equal(t, uint64(0), s.Generation)
	assert.Equal(t, SourceNone, s.Stats().Source)
}
