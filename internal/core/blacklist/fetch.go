package blacklist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	perr "phishguard/internal/platform/errors"

	"golang.org/x/sync/errgroup"
)

// FetchOptions configures the feed download
type FetchOptions struct {
	BaseURL  string
	Timeout  time.Duration
	MaxBytes int64
	Client   *http.Client
}

// DefaultBaseURL is the public feed mirror
const DefaultBaseURL = "https://phish.co.za/latest/"

func (o *FetchOptions) applyDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = 64 << 20
	}
	if o.Client == nil {
		o.Client = &http.Client{}
	}
}

// Fetcher downloads the three feeds as one unit
type Fetcher struct{ opt FetchOptions }

// NewFetcher applies defaults to opt
func NewFetcher(opt FetchOptions) *Fetcher {
	opt.applyDefaults()
	return &Fetcher{opt: opt}
}

// Fetch downloads the three feeds in parallel; if any one fails the whole fetch fails
func (f *Fetcher) Fetch(ctx context.Context) (Feeds, error) {
	var out Feeds
	g, gctx := errgroup.WithContext(ctx)
	for name, dst := range map[string]*[]byte{
		DomainsFile: &out.Domains,
		IPsFile:     &out.IPs,
		URLsFile:    &out.URLs,
	} {
		g.Go(func() error {
			b, err := f.get(gctx, name)
			if err != nil {
				return perr.Wrapf(err, perr.ErrorCodeUnavailable, "fetch %s", name)
			}
			*dst = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Feeds{}, err
	}
	return out, nil
}

func (f *Fetcher) get(ctx context.Context, name string) ([]byte, error) {
	u, err := url.JoinPath(f.opt.BaseURL, name)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, f.opt.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.opt.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	lr := &io.LimitedReader{R: resp.Body, N: f.opt.MaxBytes + 1}
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > f.opt.MaxBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", f.opt.MaxBytes)
	}
	if resp.ContentLength >= 0 && int64(len(b)) != resp.ContentLength {
		return nil, fmt.Errorf("short body: %d of %d bytes", len(b), resp.ContentLength)
	}
	return b, nil
}
