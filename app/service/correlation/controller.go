package correlation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"eyestock/app/client/backend"
	"eyestock/app/config"
	"eyestock/app/util/urlx"

	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

const (
	PlaceholderError    = "(오류 발생)"
	PlaceholderNoAnswer = "(응답 없음)"
)

type Mode int

const (
	ModeNone Mode = iota
	ModeAnswer
	ModeNews
)

func (m Mode) String() string {
	switch m {
	case ModeAnswer:
		return "answer"
	case ModeNews:
		return "news"
	default:
		return "none"
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Turn is the combined result of one utterance: the chat answer and the news links.
type Turn struct {
	Utterance string   `json:"utterance"`
	Answer    string   `json:"answer"`
	URLs      []string `json:"urls"`
	Mode      Mode     `json:"mode"`
}

type Backend interface {
	Ask(ctx context.Context, message string) (string, error)
	News(ctx context.Context, question string, days, maxLinks int) ([]string, error)
}

// Display receives the turn lifecycle. Commit is called exactly once per started turn.
type Display interface {
	BeginTurn(utterance string)
	Commit(turn Turn)
}

type Controller struct {
	backend  Backend
	display  Display
	days     int
	maxLinks int

	inFlight atomic.Bool
}

func New(di *do.Injector) (*Controller, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewController(
		do.MustInvoke[*backend.Client](di),
		do.MustInvoke[Display](di),
		cfg.News,
	), nil
}

func NewController(client Backend, display Display, news config.News) *Controller {
	return &Controller{
		backend:  client,
		display:  display,
		days:     news.Days,
		maxLinks: news.MaxLinks,
	}
}

func (c *Controller) InFlight() bool {
	return c.inFlight.Load()
}

// OnUtterance asks the chat and news endpoints concurrently and commits the combined turn.
// It returns false without issuing any request for empty text or while another turn is in flight.
func (c *Controller) OnUtterance(ctx context.Context, text string) (Turn, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, false
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		slog.Info("Turn in flight, utterance dropped", slog.String("text", text))
		return Turn{}, false
	}
	defer c.inFlight.Store(false)

	start := time.Now()

	c.display.BeginTurn(text)

	turn := Turn{
		Utterance: text,
	}

	var g errgroup.Group

	g.Go(func() error {
		turn.Answer = c.ask(ctx, text)
		return nil
	})

	g.Go(func() error {
		turn.URLs = c.news(ctx, text)
		return nil
	})

	_ = g.Wait()

	if len(turn.URLs) > 0 {
		turn.Mode = ModeNews
	} else {
		turn.Mode = ModeAnswer
	}

	c.display.Commit(turn)

	slog.Info("Turn completed",
		slog.String("text", text),
		slog.String("mode", turn.Mode.String()),
		slog.Int("urls", len(turn.URLs)),
		slog.Duration("duration", time.Since(start)),
	)

	return turn, true
}

func (c *Controller) ask(ctx context.Context, text string) string {
	answer, err := c.backend.Ask(ctx, text)
	if err != nil {
		status := backend.StatusOf(err)
		slog.Warn("Ask failed", slog.Int("status", status), slog.Any("error", err))

		if status != 0 {
			return fmt.Sprintf("(오류 %d)", status)
		}
		return PlaceholderError
	}

	if strings.TrimSpace(answer) == "" {
		return PlaceholderNoAnswer
	}

	return answer
}

func (c *Controller) news(ctx context.Context, text string) []string {
	urls, err := c.backend.News(ctx, text, c.days, c.maxLinks)
	if err != nil {
		slog.Warn("News failed", slog.Int("status", backend.StatusOf(err)), slog.Any("error", err))
		return []string{}
	}

	return urlx.FilterValid(urls)
}
