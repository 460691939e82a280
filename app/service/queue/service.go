package queue

import (
	"log/slog"

	"github.com/samber/do"
)

const bufferSize = 16

var _ do.Shutdownable = (*Service)(nil)

// Utterance is one recognized phrase. Turn increases with every published utterance.
type Utterance struct {
	Text string
	Turn uint64
}

type Service struct {
	queue chan Utterance
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{
		queue: make(chan Utterance, bufferSize),
	}, nil
}

// Add enqueues u without blocking. Utterances are dropped when the queue is full or shut down.
func (s *Service) Add(u Utterance) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("utterance dropped after shutdown", "turn", u.Turn)
		}
	}()

	select {
	case s.queue <- u:
	default:
		slog.Warn("utterance queue is full", "turn", u.Turn)
	}
}

func (s *Service) Channel() <-chan Utterance {
	return s.queue
}

func (s *Service) Shutdown() error {
	close(s.queue)

	return nil
}
