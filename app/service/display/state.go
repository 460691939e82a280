package display

import (
	"log/slog"
	"sync"

	"eyestock/app/client/platform"
	"eyestock/app/service/capture"
	"eyestock/app/service/correlation"
	"eyestock/app/service/rotation"

	"github.com/samber/do"
)

const WaitingText = "응답을 기다리는 중..."

var _ correlation.Display = (*State)(nil)

type Speaker interface {
	Speak(text string) error
	Stop()
}

type Carousel interface {
	Seed(urls []string, compact bool, caption string)
	Snapshot() rotation.Card
}

type Listener interface {
	IsListening() bool
	RecognizedText() string
}

// Snapshot is the full view: what was heard, and either the spoken answer or the news carousel.
type Snapshot struct {
	Listening      bool             `json:"listening"`
	RecognizedText string           `json:"recognizedText"`
	Loading        bool             `json:"loading"`
	Mode           correlation.Mode `json:"mode"`
	Answer         string           `json:"answer,omitempty"`
	Card           *rotation.Card   `json:"card,omitempty"`
}

type State struct {
	speaker  Speaker
	carousel Carousel

	mu       sync.RWMutex
	listener Listener
	loading  bool
	mode     correlation.Mode
	answer   string
}

func New(di *do.Injector) (*State, error) {
	return NewState(
		do.MustInvoke[*platform.Speaker](di),
		do.MustInvoke[*rotation.Controller](di),
	), nil
}

func NewState(speaker Speaker, carousel Carousel) *State {
	return &State{
		speaker:  speaker,
		carousel: carousel,
	}
}

// Bind attaches the capture controller whose listening state is shown.
func (s *State) Bind(listener Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listener = listener
}

func (s *State) BeginTurn(utterance string) {
	s.mu.Lock()
	s.loading = true
	s.mode = correlation.ModeNone
	s.answer = ""
	s.mu.Unlock()

	s.carousel.Seed(nil, false, "")

	slog.Debug("Turn started", slog.String("utterance", utterance))
}

// Commit shows exactly one of the news carousel or the spoken answer.
func (s *State) Commit(turn correlation.Turn) {
	s.mu.Lock()
	s.loading = false
	s.mode = turn.Mode
	s.answer = turn.Answer
	s.mu.Unlock()

	switch turn.Mode {
	case correlation.ModeNews:
		s.speaker.Stop()
		s.carousel.Seed(turn.URLs, false, turn.Utterance)
	case correlation.ModeAnswer:
		s.carousel.Seed(nil, false, "")
		s.speaker.Stop()
		if err := s.speaker.Speak(turn.Answer); err != nil {
			slog.Warn("Failed to speak answer", slog.Any("error", err))
		}
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		Loading: s.loading,
		Mode:    s.mode,
		Answer:  s.answer,
	}
	listener := s.listener
	s.mu.RUnlock()

	if listener != nil {
		snap.Listening = listener.IsListening()
		snap.RecognizedText = listener.RecognizedText()
	}

	if snap.Mode == correlation.ModeNews {
		card := s.carousel.Snapshot()
		snap.Card = &card
		snap.Answer = ""
	} else if snap.Answer == "" {
		snap.Answer = WaitingText
	}

	return snap
}

var _ Listener = (*capture.Controller)(nil)
