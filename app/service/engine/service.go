package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"eyestock/app/service/capture"
	"eyestock/app/service/correlation"
	"eyestock/app/service/display"
	"eyestock/app/service/queue"

	"github.com/samber/do"
)

type Capture interface {
	Start(ctx context.Context) error
	IsListening() bool
	RecognizedText() string
}

type Correlator interface {
	OnUtterance(ctx context.Context, text string) (correlation.Turn, bool)
}

type Service struct {
	capture     Capture
	correlation Correlator
	utterances  <-chan queue.Utterance
	display     *display.State

	wg sync.WaitGroup
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[*capture.Controller](di),
		do.MustInvoke[*correlation.Controller](di),
		do.MustInvoke[*queue.Service](di).Channel(),
		do.MustInvoke[*display.State](di),
	), nil
}

func NewService(c Capture, corr Correlator, utterances <-chan queue.Utterance, state *display.State) *Service {
	return &Service{
		capture:     c,
		correlation: corr,
		utterances:  utterances,
		display:     state,
	}
}

// Run starts listening and feeds every recognized utterance to the correlation controller until ctx is done.
// Turns run in the background so utterances arriving mid-turn are dropped by the in-flight guard.
func (s *Service) Run(ctx context.Context) {
	defer s.wg.Wait()

	if s.display != nil {
		s.display.Bind(s.capture)
	}

	s.listen(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-s.utterances:
			if !ok {
				return
			}

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.process(ctx, u)
			}()
		}
	}
}

func (s *Service) process(ctx context.Context, u queue.Utterance) {
	turn, ok := s.correlation.OnUtterance(ctx, u.Text)
	if !ok {
		return
	}

	slog.Info("Processed utterance",
		slog.Uint64("turn", u.Turn),
		slog.String("text", u.Text),
		slog.String("mode", turn.Mode.String()),
	)

	if ctx.Err() == nil {
		s.listen(ctx)
	}
}

func (s *Service) listen(ctx context.Context) {
	if err := s.capture.Start(ctx); err != nil {
		switch {
		case errors.Is(err, capture.ErrPermissionDenied):
			slog.Warn("Listening unavailable without microphone permission")
			return
		case errors.Is(err, capture.ErrStartCancelled), errors.Is(err, capture.ErrClosed):
			return
		}

		slog.Error("Failed to start listening", slog.Any("error", err))
	}
}
