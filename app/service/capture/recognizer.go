package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"eyestock/app/client/microphone"
	"eyestock/app/client/speechkit"
	"eyestock/app/config"

	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

const bufferSize = 4096

var errUtteranceDone = errors.New("utterance recognized")

var _ Recognizer = (*SpeechRecognizer)(nil)

// SpeechRecognizer streams the microphone to SpeechKit and reports the first final phrase of a session.
type SpeechRecognizer struct {
	ctx        context.Context
	speech     *speechkit.YandexSpeechKit
	sampleRate int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSpeechRecognizer(di *do.Injector) (*SpeechRecognizer, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &SpeechRecognizer{
		ctx:        do.MustInvoke[context.Context](di),
		speech:     do.MustInvoke[*speechkit.YandexSpeechKit](di),
		sampleRate: cfg.Voice.SampleRate,
	}, nil
}

func (r *SpeechRecognizer) Start(_ context.Context, language string, callbacks Callbacks) error {
	if err := r.Stop(); err != nil {
		return err
	}

	mic, err := microphone.Open(r.sampleRate)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(r.ctx)
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go func() {
		defer close(done)
		defer mic.Close()

		err := r.runWithRetry(ctx, mic, language, callbacks.OnResult)
		if err != nil && !errors.Is(err, context.Canceled) {
			callbacks.OnError(err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = mic.Close()
	}()

	return nil
}

// Stop ends the current session and waits for the microphone to be released.
func (r *SpeechRecognizer) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	<-done

	return nil
}

// Close stops any session and releases the SpeechKit connections.
func (r *SpeechRecognizer) Close() error {
	_ = r.Stop()

	return r.speech.Shutdown()
}

func (r *SpeechRecognizer) runWithRetry(ctx context.Context, audioSrc io.Reader, language string, onResult func(string)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			err := r.runSingle(ctx, audioSrc, language, onResult)
			if err == nil || errors.Is(err, errUtteranceDone) {
				return nil
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}

			if errors.Is(err, io.EOF) {
				slog.Info("received EOF from speechkit, restarting session")
				continue
			}

			return fmt.Errorf("transcription error: %w", err)
		}
	}
}

func (r *SpeechRecognizer) runSingle(ctx context.Context, audioSrc io.Reader, language string, onResult func(string)) error {
	handle, err := r.speech.Start(ctx, language)
	if err != nil {
		return fmt.Errorf("failed to start transcription: %w", err)
	}
	defer handle.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return streamAudio(ctx, audioSrc, handle)
	})

	g.Go(func() error {
		return receivePhrase(ctx, handle, onResult)
	})

	return g.Wait()
}

func streamAudio(ctx context.Context, audioSrc io.Reader, handle *speechkit.Handle) error {
	if err := handle.SendConfig(); err != nil {
		return fmt.Errorf("failed to send audio config: %w", err)
	}

	buffer := make([]byte, bufferSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			n, err := audioSrc.Read(buffer)
			if err != nil {
				return fmt.Errorf("failed to read audio: %w", err)
			}

			if n == 0 {
				continue
			}

			if err = handle.Send(buffer[:n]); err != nil {
				return fmt.Errorf("failed to send audio: %w", err)
			}
		}
	}
}

// receivePhrase delivers the first alternative of the first final result and ends the session.
func receivePhrase(ctx context.Context, handle *speechkit.Handle, onResult func(string)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		alternatives, err := handle.Recv()
		if err != nil {
			return fmt.Errorf("Recv: %w", err)
		}

		if len(alternatives) == 0 {
			continue
		}

		onResult(alternatives[0])

		return errUtteranceDone
	}
}
