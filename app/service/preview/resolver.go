package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net"
	"net/http"

	"eyestock/app/config"

	"github.com/samber/do"
	"github.com/samber/oops"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	maxRedirects    = 5
	maxImageBytes   = 5 * 1024 * 1024
	resolveAllLimit = 4
)

// Resolver turns URLs into previews, memoizing results in a Cache.
type Resolver struct {
	cfg     config.Preview
	cache   *Cache
	client  *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
}

func NewCacheProvider(di *do.Injector) (*Cache, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewCache(cfg.Preview.CacheCapacity), nil
}

func New(di *do.Injector) (*Resolver, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewResolver(cfg.Preview, do.MustInvoke[*Cache](di), nil), nil
}

// NewResolver creates a resolver. A nil client gets a default one that follows up to five redirects.
func NewResolver(cfg config.Preview, cache *Cache, client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		}
	}

	limit := rate.Inf
	burst := 0
	if cfg.FetchRate > 0 {
		limit = rate.Limit(cfg.FetchRate)
		burst = max(1, int(cfg.FetchRate))
	}

	return &Resolver{
		cfg:     cfg,
		cache:   cache,
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve returns the preview for pageURL. Cached and canned entries never touch the network.
// Concurrent resolutions of the same uncached URL share one fetch.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) (LinkPreviewMeta, error) {
	if meta, ok := r.cache.Get(pageURL); ok {
		return meta, nil
	}

	if meta, ok := overrides[pageURL]; ok {
		return r.store(pageURL, meta), nil
	}

	// The shared fetch outlives any single caller. Fetches carry their own timeout.
	fetchCtx := context.WithoutCancel(ctx)

	ch := r.group.DoChan(pageURL, func() (interface{}, error) {
		if meta, ok := r.cache.Get(pageURL); ok {
			return meta, nil
		}

		meta, err := r.resolve(fetchCtx, pageURL)
		if err != nil {
			return nil, err
		}

		return r.store(pageURL, meta), nil
	})

	select {
	case <-ctx.Done():
		return LinkPreviewMeta{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return LinkPreviewMeta{}, res.Err
		}

		return res.Val.(LinkPreviewMeta), nil
	}
}

type Result struct {
	URL  string
	Meta LinkPreviewMeta
	Err  error
}

// ResolveAll resolves urls concurrently, keeping the input order in the result.
func (r *Resolver) ResolveAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))

	var g errgroup.Group
	g.SetLimit(resolveAllLimit)

	for i, u := range urls {
		g.Go(func() error {
			meta, err := r.Resolve(ctx, u)
			results[i] = Result{URL: u, Meta: meta, Err: err}
			return nil
		})
	}

	_ = g.Wait()

	return results
}

func (r *Resolver) resolve(ctx context.Context, pageURL string) (LinkPreviewMeta, error) {
	page, err := r.fetchHTML(ctx, pageURL)
	if err != nil {
		return LinkPreviewMeta{}, err
	}

	if target, ok := MetaRefreshTarget(page, pageURL); ok {
		slog.Debug("Following meta refresh", "url", pageURL, "target", target)

		redirected, err := r.fetchHTML(ctx, target)
		if err != nil {
			return LinkPreviewMeta{}, err
		}

		return Extract(redirected, target), nil
	}

	meta := Extract(page, pageURL)

	if meta.Image != "" && r.cfg.PrewarmEnabled() {
		r.prewarmImage(ctx, meta.Image)
	}

	return meta, nil
}

// store caches meta under the original URL and returns whichever entry ended up cached.
func (r *Resolver) store(pageURL string, meta LinkPreviewMeta) LinkPreviewMeta {
	if r.cache.Add(pageURL, meta) {
		return meta
	}

	if cached, ok := r.cache.Get(pageURL); ok {
		return cached
	}

	return meta
}

func (r *Resolver) fetchHTML(ctx context.Context, pageURL string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fetchFailure(pageURL, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fetchFailure(pageURL, err)
	}

	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept-Language", r.cfg.AcceptLanguage)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fetchFailure(pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fetchFailure(pageURL, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.cfg.MaxPageBytes))
	if err != nil {
		return "", fetchFailure(pageURL, err)
	}

	return string(body), nil
}

// prewarmImage downloads the preview image so later renders hit a warm connection and CDN.
// Failures are logged and dropped.
func (r *Resolver) prewarmImage(ctx context.Context, imageURL string) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return
	}

	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := r.client.Do(req)
	if err != nil {
		slog.Debug("Image prewarm failed", "image", imageURL, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Debug("Image prewarm failed", "image", imageURL, "status", resp.StatusCode)
		return
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		slog.Debug("Image prewarm failed", "image", imageURL, "error", err)
		return
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Image prewarm decode failed", "image", imageURL, "error", err)
		return
	}

	slog.Debug("Image prewarmed",
		"image", imageURL,
		"format", format,
		"width", cfg.Width,
		"height", cfg.Height)
}

func fetchFailure(pageURL string, err error) error {
	builder := oops.In("preview").With("url", pageURL)

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return builder.Wrap(&timeoutError{err: err})
	}

	return builder.Wrap(fmt.Errorf("%w: %w", ErrFetch, err))
}
