// Package httpfetch downloads generated media into the run workspace.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"

	"github.com/forPelevin/topicreel/internal/types"
)

const (
	chunkSize      = 32 * 1024
	requestTimeout = 10 * time.Minute
)

// FetchError covers transport failures, non-2xx responses and empty bodies.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

var (
	ErrNoURL = errors.New("no url")
	ErrEmpty = errors.New("empty body")
	errHTTP  = errors.New("unexpected http status")
)

type Fetcher struct {
	dir      string
	client   *http.Client
	timeout  time.Duration
	progress io.Writer
}

type Option func(*Fetcher)

func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout bounds a single download. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithProgress renders a byte progress bar for every download to w.
func WithProgress(w io.Writer) Option {
	return func(f *Fetcher) { f.progress = w }
}

// New creates a fetcher writing into dir, which must exist.
func New(dir string, opts ...Option) *Fetcher {
	f := &Fetcher{dir: dir, client: &http.Client{}, timeout: requestTimeout}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch streams the first URL in urls to a temp file named after kind and
// suffix. The body is never interpreted; only status and size are checked.
func (f *Fetcher) Fetch(ctx context.Context, urls []string, kind types.MediaKind, suffix string) (types.MediaAsset, error) {
	url, ok := lo.Find(urls, func(u string) bool { return strings.TrimSpace(u) != "" })
	if !ok {
		return types.MediaAsset{}, &FetchError{Err: ErrNoURL}
	}
	url = strings.TrimSpace(url)

	reqCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return types.MediaAsset{}, &FetchError{URL: url, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return types.MediaAsset{}, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.MediaAsset{}, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: errHTTP}
	}

	tmp, err := os.CreateTemp(f.dir, string(kind)+"-*"+suffix)
	if err != nil {
		return types.MediaAsset{}, fmt.Errorf("create temp: %w", err)
	}
	path := tmp.Name()

	var dst io.Writer = tmp
	if f.progress != nil {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(f.progress),
			progressbar.OptionSetDescription("downloading "+string(kind)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		dst = io.MultiWriter(tmp, bar)
	}

	n, copyErr := io.CopyBuffer(dst, resp.Body, make([]byte, chunkSize))
	closeErr := tmp.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return types.MediaAsset{}, &FetchError{URL: url, Err: copyErr}
	case closeErr != nil:
		_ = os.Remove(path)
		return types.MediaAsset{}, &FetchError{URL: url, Err: closeErr}
	case n == 0:
		_ = os.Remove(path)
		return types.MediaAsset{}, &FetchError{URL: url, Err: ErrEmpty}
	}

	return types.MediaAsset{Path: path, Kind: kind, Bytes: n, URL: url}, nil
}
