package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"eyestock/app/client/platform"
	"eyestock/app/config"
	"eyestock/app/service/queue"

	"github.com/samber/do"
)

const (
	permissionTitle        = "권한 필요"
	permissionMessage      = "마이크 권한을 허용해주세요."
	permissionBlockMessage = "설정에서 마이크 권한을 수동으로 허용해야 음성 인식이 가능합니다."

	startRetryDelay = 250 * time.Millisecond
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrRecognition      = errors.New("speech recognition failed")
	ErrClosed           = errors.New("capture controller is closed")
	ErrStartCancelled   = errors.New("start cancelled by stop")
)

// Callbacks receive recognizer events. They may be invoked from any goroutine.
type Callbacks struct {
	OnResult func(text string)
	OnError  func(err error)
}

type Recognizer interface {
	Start(ctx context.Context, language string, callbacks Callbacks) error
	Stop() error
	Close() error
}

type PermissionPrompter interface {
	Check() bool
	Request(ctx context.Context) (platform.Permission, error)
}

type Alerter interface {
	Alert(title, message string)
}

type Sink interface {
	Add(u queue.Utterance)
}

type Controller struct {
	recognizer Recognizer
	prompter   PermissionPrompter
	alerter    Alerter
	sink       Sink
	language   string
	retryDelay time.Duration

	// recMu serializes recognizer start and stop calls.
	recMu sync.Mutex

	mu     sync.Mutex
	state  State
	text   string
	turn   uint64
	closed bool
	// attempt identifies the current Start. Stop, background and Close bump it so a pending Start
	// sees it was superseded.
	attempt uint64
}

func New(di *do.Injector) (*Controller, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewController(
		do.MustInvoke[*SpeechRecognizer](di),
		do.MustInvoke[*platform.MicrophonePrompter](di),
		do.MustInvoke[*platform.Alerter](di),
		do.MustInvoke[*queue.Service](di),
		cfg.Voice.Language,
	), nil
}

func NewController(recognizer Recognizer, prompter PermissionPrompter, alerter Alerter, sink Sink, language string) *Controller {
	return &Controller{
		recognizer: recognizer,
		prompter:   prompter,
		alerter:    alerter,
		sink:       sink,
		language:   language,
		retryDelay: startRetryDelay,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

func (c *Controller) IsListening() bool {
	return c.State() == StateListening
}

func (c *Controller) RecognizedText() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.text
}

// Start asks for microphone access and engages the recognizer. A call made while a previous
// Start is still in progress, or while already listening, does nothing. A Start superseded by
// Stop, OnBackground or Close while it waits leaves the recognizer stopped.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateStopped {
		c.mu.Unlock()
		return nil
	}
	c.apply(EventStart)
	c.attempt++
	attempt := c.attempt
	c.mu.Unlock()

	if err := c.ensurePermission(ctx); err != nil {
		c.mu.Lock()
		if c.attempt == attempt {
			c.apply(EventPermissionDenied)
		}
		c.mu.Unlock()

		slog.Warn("Microphone permission denied")

		return err
	}

	c.recMu.Lock()
	defer c.recMu.Unlock()

	c.mu.Lock()
	if err := c.supersededLocked(attempt); err != nil {
		c.mu.Unlock()
		return err
	}
	c.text = ""
	c.mu.Unlock()

	err := c.startRecognizer(ctx)

	c.mu.Lock()
	if superseded := c.supersededLocked(attempt); superseded != nil {
		c.mu.Unlock()

		if err == nil {
			_ = c.recognizer.Stop()
		}

		return superseded
	}

	if err != nil {
		c.apply(EventError)
		c.mu.Unlock()

		slog.Warn("Failed to start recognizer", slog.Any("error", err))

		return fmt.Errorf("%w: %w", ErrRecognition, err)
	}

	c.apply(EventStarted)
	c.mu.Unlock()

	return nil
}

func (c *Controller) Stop() {
	c.halt(EventStop)
}

// Reset clears the recognized text.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.text = ""
}

func (c *Controller) OnForeground(ctx context.Context) error {
	c.mu.Lock()
	before := c.state
	c.apply(EventForeground)
	if before == StateListening {
		c.attempt++
	}
	c.mu.Unlock()

	if before == StateListening {
		c.stopRecognizer()
	}

	return c.Start(ctx)
}

func (c *Controller) OnBackground() {
	c.halt(EventBackground)
}

// HandleResult records a final recognition result. Non-empty text is published as the next utterance.
func (c *Controller) HandleResult(text string) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.text = text
	c.apply(EventResult)

	if text == "" {
		c.mu.Unlock()
		return
	}

	c.turn++
	u := queue.Utterance{
		Text: text,
		Turn: c.turn,
	}
	c.mu.Unlock()

	slog.Info("Recognized utterance", slog.String("text", u.Text), slog.Uint64("turn", u.Turn))

	c.sink.Add(u)
}

func (c *Controller) HandleError(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.apply(EventError)
	c.mu.Unlock()

	slog.Warn("Speech recognition error", slog.Any("error", fmt.Errorf("%w: %w", ErrRecognition, err)))
}

// Close stops and releases the recognizer. Callbacks arriving afterwards are ignored.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.attempt++
	c.apply(EventStop)
	c.mu.Unlock()

	c.recMu.Lock()
	defer c.recMu.Unlock()

	_ = c.recognizer.Stop()

	return c.recognizer.Close()
}

// halt moves to Stopped, cancels any pending Start and stops the recognizer.
func (c *Controller) halt(e Event) {
	c.mu.Lock()
	c.apply(e)
	c.attempt++
	c.mu.Unlock()

	c.stopRecognizer()
}

func (c *Controller) stopRecognizer() {
	c.recMu.Lock()
	defer c.recMu.Unlock()

	if err := c.recognizer.Stop(); err != nil {
		slog.Debug("Failed to stop recognizer", slog.Any("error", err))
	}
}

// supersededLocked reports why the Start identified by attempt must not go on, or nil when it may.
func (c *Controller) supersededLocked(attempt uint64) error {
	switch {
	case c.closed:
		return ErrClosed
	case c.attempt != attempt:
		return ErrStartCancelled
	default:
		return nil
	}
}

func (c *Controller) ensurePermission(ctx context.Context) error {
	if c.prompter.Check() {
		return nil
	}

	perm, err := c.prompter.Request(ctx)
	if err != nil {
		c.alerter.Alert(permissionTitle, permissionMessage)
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}

	switch perm {
	case platform.PermissionGranted:
		return nil
	case platform.PermissionNeverAskAgain:
		c.alerter.Alert(permissionTitle, permissionBlockMessage)
	default:
		c.alerter.Alert(permissionTitle, permissionMessage)
	}

	return ErrPermissionDenied
}

// startRecognizer clears any stale session first and retries a failed start once.
func (c *Controller) startRecognizer(ctx context.Context) error {
	_ = c.recognizer.Stop()

	callbacks := Callbacks{
		OnResult: c.HandleResult,
		OnError:  c.HandleError,
	}

	err := c.recognizer.Start(ctx, c.language, callbacks)
	if err == nil {
		return nil
	}

	slog.Debug("Recognizer start failed, retrying", slog.Any("error", err))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.retryDelay):
	}

	return c.recognizer.Start(ctx, c.language, callbacks)
}

// apply must be called with mu held.
func (c *Controller) apply(e Event) {
	next := transition(c.state, e)
	if next != c.state {
		slog.Debug("Capture state changed",
			slog.String("from", c.state.String()),
			slog.String("to", next.String()),
			slog.String("event", e.String()),
		)
	}
	c.state = next
}
