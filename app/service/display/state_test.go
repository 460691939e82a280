package display

import (
	"testing"

	"eyestock/app/service/correlation"
	"eyestock/app/service/rotation"

	"github.com/stretchr/testify/assert"
)

type fakeSpeaker struct {
	calls []string
}

func (f *fakeSpeaker) Speak(text string) error {
	f.calls = append(f.calls, "speak:"+text)
	return nil
}

func (f *fakeSpeaker) Stop() {
	f.calls = append(f.calls, "stop")
}

type seed struct {
	urls    []string
	compact bool
	caption string
}

type fakeCarousel struct {
	seeds []seed
}

func (f *fakeCarousel) Seed(urls []string, compact bool, caption string) {
	f.seeds = append(f.seeds, seed{urls, compact, caption})
}

func (f *fakeCarousel) Snapshot() rotation.Card {
	last := f.seeds[len(f.seeds)-1]
	return rotation.Card{Status: rotation.StatusLoading, URL: last.urls[0], Caption: last.caption, Total: len(last.urls)}
}

type fakeListener struct{}

func (fakeListener) IsListening() bool      { return true }
func (fakeListener) RecognizedText() string { return "들은 말" }

func TestWaitingPlaceholder(t *testing.T) {
	s := NewState(&fakeSpeaker{}, &fakeCarousel{})

	snap := s.Snapshot()
	assert.Equal(t, correlation.ModeNone, snap.Mode)
	assert.Equal(t, WaitingText, snap.Answer)
	assert.Nil(t, snap.Card)
}

func TestCommitAnswerSpeaks(t *testing.T) {
	speaker := &fakeSpeaker{}
	carousel := &fakeCarousel{}
	s := NewState(speaker, carousel)

	s.BeginTurn("질문")
	assert.True(t, s.Snapshot().Loading)

	s.Commit(correlation.Turn{Utterance: "질문", Answer: "답변입니다", Mode: correlation.ModeAnswer})

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, correlation.ModeAnswer, snap.Mode)
	assert.Equal(t, "답변입니다", snap.Answer)
	assert.Nil(t, snap.Card)
	assert.Equal(t, []string{"stop", "speak:답변입니다"}, speaker.calls)
}

func TestCommitNewsSeedsCarousel(t *testing.T) {
	speaker := &fakeSpeaker{}
	carousel := &fakeCarousel{}
	s := NewState(speaker, carousel)
	s.Bind(fakeListener{})

	urls := []string{"https://a.com", "https://b.com"}
	s.BeginTurn("뉴스")
	s.Commit(correlation.Turn{Utterance: "뉴스", Answer: "숨김", URLs: urls, Mode: correlation.ModeNews})

	assert.Equal(t, seed{urls, false, "뉴스"}, carousel.seeds[len(carousel.seeds)-1])
	assert.NotContains(t, speaker.calls, "speak:숨김")

	snap := s.Snapshot()
	assert.Equal(t, correlation.ModeNews, snap.Mode)
	assert.Empty(t, snap.Answer)
	assert.True(t, snap.Listening)
	assert.Equal(t, "들은 말", snap.RecognizedText)
	if assert.NotNil(t, snap.Card) {
		assert.Equal(t, "뉴스", snap.Card.Caption)
		assert.Equal(t, 2, snap.Card.Total)
	}
}

func TestNewTurnClearsPreviousResult(t *testing.T) {
	carousel := &fakeCarousel{}
	s := NewState(&fakeSpeaker{}, carousel)

	s.Commit(correlation.Turn{Answer: "이전", Mode: correlation.ModeAnswer})
	s.BeginTurn("다음")

	snap := s.Snapshot()
	assert.Equal(t, WaitingText, snap.Answer)
	assert.Equal(t, correlation.ModeNone, snap.Mode)
	assert.Nil(t, carousel.seeds[len(carousel.seeds)-1].urls)
}
