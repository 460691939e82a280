package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"eyestock/app/client/platform"
	"eyestock/app/service/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecognizer struct {
	mu        sync.Mutex
	starts    int
	stops     int
	closed    bool
	failures  int
	running   bool
	language  string
	callbacks Callbacks

	// entered and release, when set, hold Start until the test lets it go.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeRecognizer) Start(_ context.Context, language string, callbacks Callbacks) error {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.starts++
	if f.failures > 0 {
		f.failures--
		return errors.New("busy")
	}

	f.running = true
	f.language = language
	f.callbacks = callbacks

	return nil
}

func (f *fakeRecognizer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stops++
	f.running = false
	return nil
}

func (f *fakeRecognizer) isRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.running
}

func (f *fakeRecognizer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

func (f *fakeRecognizer) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.starts
}

type fakePrompter struct {
	granted bool
	answer  platform.Permission
	block   chan struct{}
}

func (f *fakePrompter) Check() bool {
	return f.granted
}

func (f *fakePrompter) Request(ctx context.Context) (platform.Permission, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return platform.PermissionDenied, ctx.Err()
		}
	}

	return f.answer, nil
}

type fakeAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeAlerter) Alert(_, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, message)
}

type fakeSink struct {
	mu         sync.Mutex
	utterances []queue.Utterance
}

func (f *fakeSink) Add(u queue.Utterance) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.utterances = append(f.utterances, u)
}

func newTestController(prompter *fakePrompter) (*Controller, *fakeRecognizer, *fakeAlerter, *fakeSink) {
	rec := &fakeRecognizer{}
	alerter := &fakeAlerter{}
	sink := &fakeSink{}

	c := NewController(rec, prompter, alerter, sink, "ko-KR")
	c.retryDelay = time.Millisecond

	return c, rec, alerter, sink
}

func TestStartListening(t *testing.T) {
	c, rec, _, _ := newTestController(&fakePrompter{granted: true})

	require.NoError(t, c.Start(t.Context()))

	assert.True(t, c.IsListening())
	assert.Equal(t, "ko-KR", rec.language)
	assert.Equal(t, 1, rec.startCount())
}

func TestStartPermissionDenied(t *testing.T) {
	c, rec, alerter, _ := newTestController(&fakePrompter{answer: platform.PermissionDenied})

	err := c.Start(t.Context())
	require.ErrorIs(t, err, ErrPermissionDenied)

	assert.Equal(t, StateStopped, c.State())
	assert.Equal(t, 0, rec.startCount())
	assert.Equal(t, []string{permissionMessage}, alerter.messages)
}

func TestStartNeverAskAgain(t *testing.T) {
	c, _, alerter, _ := newTestController(&fakePrompter{answer: platform.PermissionNeverAskAgain})

	require.ErrorIs(t, c.Start(t.Context()), ErrPermissionDenied)
	assert.Equal(t, []string{permissionBlockMessage}, alerter.messages)
}

func TestStartIsNotReentrant(t *testing.T) {
	prompter := &fakePrompter{answer: platform.PermissionGranted, block: make(chan struct{})}
	c, rec, _, _ := newTestController(prompter)

	done := make(chan error, 1)
	go func() {
		done <- c.Start(t.Context())
	}()

	require.Eventually(t, func() bool {
		return c.State() == StateStarting
	}, time.Second, time.Millisecond)

	require.NoError(t, c.Start(t.Context()))

	close(prompter.block)
	require.NoError(t, <-done)

	assert.Equal(t, 1, rec.startCount())
	assert.True(t, c.IsListening())
}

func TestBackgroundCancelsPendingStart(t *testing.T) {
	prompter := &fakePrompter{answer: platform.PermissionGranted, block: make(chan struct{})}
	c, rec, _, _ := newTestController(prompter)

	done := make(chan error, 1)
	go func() {
		done <- c.Start(t.Context())
	}()

	require.Eventually(t, func() bool {
		return c.State() == StateStarting
	}, time.Second, time.Millisecond)

	c.OnBackground()
	assert.Equal(t, StateStopped, c.State())

	close(prompter.block)
	require.ErrorIs(t, <-done, ErrStartCancelled)

	assert.Equal(t, StateStopped, c.State())
	assert.Equal(t, 0, rec.startCount())
	assert.False(t, rec.isRunning())
}

func TestStartAfterStopWinsOverPendingStart(t *testing.T) {
	prompter := &fakePrompter{answer: platform.PermissionGranted, block: make(chan struct{})}
	c, rec, _, _ := newTestController(prompter)

	first := make(chan error, 1)
	go func() {
		first <- c.Start(t.Context())
	}()

	require.Eventually(t, func() bool {
		return c.State() == StateStarting
	}, time.Second, time.Millisecond)

	c.Stop()

	second := make(chan error, 1)
	go func() {
		second <- c.Start(t.Context())
	}()

	require.Eventually(t, func() bool {
		return c.State() == StateStarting
	}, time.Second, time.Millisecond)

	close(prompter.block)
	require.ErrorIs(t, <-first, ErrStartCancelled)
	require.NoError(t, <-second)

	assert.Equal(t, 1, rec.startCount())
	assert.True(t, c.IsListening())
}

func TestStopWhileRecognizerStarting(t *testing.T) {
	c, rec, _, _ := newTestController(&fakePrompter{granted: true})
	rec.entered = make(chan struct{})
	rec.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- c.Start(t.Context())
	}()

	<-rec.entered

	stopped := make(chan struct{})
	go func() {
		c.Stop()
		close(stopped)
	}()

	require.Eventually(t, func() bool {
		return c.State() == StateStopped
	}, time.Second, time.Millisecond)

	close(rec.release)
	require.ErrorIs(t, <-done, ErrStartCancelled)
	<-stopped

	assert.Equal(t, StateStopped, c.State())
	assert.False(t, rec.isRunning())
}

func TestCloseCancelsPendingStart(t *testing.T) {
	prompter := &fakePrompter{answer: platform.PermissionGranted, block: make(chan struct{})}
	c, rec, _, _ := newTestController(prompter)

	done := make(chan error, 1)
	go func() {
		done <- c.Start(t.Context())
	}()

	require.Eventually(t, func() bool {
		return c.State() == StateStarting
	}, time.Second, time.Millisecond)

	require.NoError(t, c.Close())

	close(prompter.block)
	require.ErrorIs(t, <-done, ErrClosed)

	assert.Equal(t, 0, rec.startCount())
	assert.False(t, rec.isRunning())
}

func TestStartRetriesOnce(t *testing.T) {
	c, rec, _, _ := newTestController(&fakePrompter{granted: true})
	rec.failures = 1

	require.NoError(t, c.Start(t.Context()))
	assert.Equal(t, 2, rec.startCount())
	assert.True(t, c.IsListening())
}

func TestStartFailureStops(t *testing.T) {
	c, rec, _, _ := newTestController(&fakePrompter{granted: true})
	rec.failures = 2

	require.ErrorIs(t, c.Start(t.Context()), ErrRecognition)
	assert.Equal(t, StateStopped, c.State())
}

func TestResultPublishesUtterances(t *testing.T) {
	c, rec, _, sink := newTestController(&fakePrompter{granted: true})

	require.NoError(t, c.Start(t.Context()))
	rec.callbacks.OnResult(" 삼성전자 주가 ")

	assert.False(t, c.IsListening())
	assert.Equal(t, "삼성전자 주가", c.RecognizedText())

	require.NoError(t, c.Start(t.Context()))
	assert.Empty(t, c.RecognizedText())

	rec.callbacks.OnResult("")
	require.NoError(t, c.Start(t.Context()))
	rec.callbacks.OnResult("반도체 뉴스")

	assert.Equal(t, []queue.Utterance{
		{Text: "삼성전자 주가", Turn: 1},
		{Text: "반도체 뉴스", Turn: 2},
	}, sink.utterances)
}

func TestErrorStopsListening(t *testing.T) {
	c, rec, _, sink := newTestController(&fakePrompter{granted: true})

	require.NoError(t, c.Start(t.Context()))
	rec.callbacks.OnError(errors.New("no match"))

	assert.Equal(t, StateStopped, c.State())
	assert.Empty(t, sink.utterances)
}

func TestLifecycle(t *testing.T) {
	c, rec, _, _ := newTestController(&fakePrompter{granted: true})

	require.NoError(t, c.Start(t.Context()))

	c.OnBackground()
	assert.Equal(t, StateStopped, c.State())

	require.NoError(t, c.OnForeground(t.Context()))
	assert.True(t, c.IsListening())

	require.NoError(t, c.OnForeground(t.Context()))
	assert.True(t, c.IsListening())
	assert.Equal(t, 3, rec.startCount())
}

func TestCloseReleasesRecognizer(t *testing.T) {
	c, rec, _, sink := newTestController(&fakePrompter{granted: true})

	require.NoError(t, c.Start(t.Context()))
	callbacks := rec.callbacks

	require.NoError(t, c.Close())
	assert.True(t, rec.closed)

	callbacks.OnResult("late")
	assert.Empty(t, sink.utterances)
	assert.ErrorIs(t, c.Start(t.Context()), ErrClosed)
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from  State
		event Event
		want  State
	}{
		{StateStopped, EventStart, StateStarting},
		{StateStarting, EventStart, StateStarting},
		{StateStarting, EventPermissionDenied, StateStopped},
		{StateStarting, EventStarted, StateListening},
		{StateStopped, EventStarted, StateStopped},
		{StateListening, EventResult, StateStopped},
		{StateListening, EventError, StateStopped},
		{StateListening, EventStop, StateStopped},
		{StateListening, EventBackground, StateStopped},
		{StateListening, EventForeground, StateStopped},
		{StateStarting, EventForeground, StateStarting},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.event.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, transition(tt.from, tt.event))
		})
	}
}
