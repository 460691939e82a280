package rotation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"eyestock/app/client/platform"
	"eyestock/app/config"
	"eyestock/app/service/preview"
	"eyestock/app/util/urlx"

	"github.com/samber/do"
)

const UnavailableNotice = "미리보기를 불러오지 못했어요. 탭하여 열기"

type Status string

const (
	StatusIdle        Status = "idle"
	StatusLoading     Status = "loading"
	StatusReady       Status = "ready"
	StatusUnavailable Status = "unavailable"
)

type Resolver interface {
	Resolve(ctx context.Context, url string) (preview.LinkPreviewMeta, error)
}

type Opener interface {
	Open(url string) error
}

// Card is the renderable state of the carousel's active slot.
type Card struct {
	Status  Status                   `json:"status"`
	URL     string                   `json:"url,omitempty"`
	Domain  string                   `json:"domain,omitempty"`
	Meta    *preview.LinkPreviewMeta `json:"meta,omitempty"`
	Notice  string                   `json:"notice,omitempty"`
	Caption string                   `json:"caption,omitempty"`
	Compact bool                     `json:"compact"`
	Index   int                      `json:"index"`
	Total   int                      `json:"total"`
}

type slot struct {
	status Status
	meta   preview.LinkPreviewMeta
}

// Controller cycles through a list of URLs on a fixed interval and tracks the preview of the selected one.
type Controller struct {
	ctx      context.Context
	resolver Resolver
	opener   Opener
	interval time.Duration

	mu         sync.Mutex
	generation uint64
	urls       []string
	compact    bool
	caption    string
	idx        int
	slots      map[string]*slot
	stopTimer  chan struct{}
}

func NewController(di *do.Injector) (*Controller, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(
		do.MustInvoke[context.Context](di),
		do.MustInvoke[*preview.Resolver](di),
		do.MustInvoke[*platform.Opener](di),
		cfg.Preview.RotationInterval,
	), nil
}

func New(ctx context.Context, resolver Resolver, opener Opener, interval time.Duration) *Controller {
	return &Controller{
		ctx:      ctx,
		resolver: resolver,
		opener:   opener,
		interval: interval,
		slots:    make(map[string]*slot),
	}
}

// Seed replaces the list. Invalid URLs are dropped, the cursor returns to 0 and the timer is recreated
// when more than one URL remains.
func (c *Controller) Seed(urls []string, compact bool, caption string) {
	c.mu.Lock()

	c.generation++
	c.stopTimerLocked()

	c.urls = urlx.FilterValid(urls)
	c.compact = compact
	c.caption = caption
	c.idx = 0
	c.slots = make(map[string]*slot)

	gen := c.generation
	if len(c.urls) > 1 {
		stop := make(chan struct{})
		c.stopTimer = stop
		go c.runTimer(gen, stop)
	}

	current := c.currentLocked()
	c.mu.Unlock()

	c.load(gen, current)
}

// Tick advances the cursor by one, wrapping around. Lists of one or zero URLs never move.
func (c *Controller) Tick() {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	c.tick(gen)
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()

	if gen != c.generation || len(c.urls) <= 1 {
		c.mu.Unlock()
		return
	}

	c.idx = (c.idx + 1) % len(c.urls)
	current := c.currentLocked()
	c.mu.Unlock()

	c.load(gen, current)
}

// Open hands the active URL to the external opener. Failures are logged and dropped.
func (c *Controller) Open() {
	c.mu.Lock()
	current := c.currentLocked()
	c.mu.Unlock()

	if current == "" {
		return
	}

	if err := c.opener.Open(current); err != nil {
		slog.Warn("Failed to open link", "url", current, "error", err)
	}
}

func (c *Controller) TimerActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stopTimer != nil
}

// Stop cancels the rotation timer and clears the list.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.stopTimerLocked()
	c.urls = nil
	c.idx = 0
	c.slots = make(map[string]*slot)
}

func (c *Controller) Snapshot() Card {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.currentLocked()
	if current == "" {
		return Card{Status: StatusIdle}
	}

	domain := urlx.Domain(current)
	if domain == "" {
		domain = current
	}

	card := Card{
		Status:  StatusLoading,
		URL:     current,
		Domain:  domain,
		Caption: c.caption,
		Compact: c.compact,
		Index:   c.idx,
		Total:   len(c.urls),
	}

	if s, ok := c.slots[current]; ok {
		card.Status = s.status
		switch s.status {
		case StatusReady:
			meta := s.meta
			card.Meta = &meta
		case StatusUnavailable:
			card.Notice = UnavailableNotice
		}
	}

	return card
}

func (c *Controller) runTimer(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.tick(gen)
		}
	}
}

func (c *Controller) load(gen uint64, url string) {
	if url == "" {
		return
	}

	c.mu.Lock()
	if s, ok := c.slots[url]; (ok && s.status != StatusUnavailable) || gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.slots[url] = &slot{status: StatusLoading}
	c.mu.Unlock()

	go func() {
		meta, err := c.resolver.Resolve(c.ctx, url)

		c.mu.Lock()
		defer c.mu.Unlock()

		if gen != c.generation {
			return
		}

		if err != nil {
			slog.Warn("Preview unavailable", "url", url, "error", err)
			c.slots[url] = &slot{status: StatusUnavailable}
			return
		}

		c.slots[url] = &slot{status: StatusReady, meta: meta}
	}()
}

func (c *Controller) stopTimerLocked() {
	if c.stopTimer != nil {
		close(c.stopTimer)
		c.stopTimer = nil
	}
}

func (c *Controller) currentLocked() string {
	if len(c.urls) == 0 {
		return ""
	}

	return c.urls[c.idx]
}
