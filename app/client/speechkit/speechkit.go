package speechkit

import (
	"context"
	"fmt"
	"time"

	"eyestock/app/config"

	"github.com/samber/do"
	ycsdk "github.com/yandex-cloud/go-sdk"
	"github.com/yandex-cloud/go-sdk/iamkey"
)

// Options describe one recognition session.
type Options struct {
	Language   string
	Model      string
	SampleRate int
	// EndOfUtterancePause is the silence the server waits for before finalizing a phrase.
	EndOfUtterancePause time.Duration
}

// YandexSpeechKit opens streaming recognition sessions against SpeechKit v3.
type YandexSpeechKit struct {
	cfg *config.Config
	sdk *ycsdk.SDK
}

func NewClient(di *do.Injector) (*YandexSpeechKit, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	key, err := iamkey.ReadFromJSONFile(cfg.Yandex.SpeechKit.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("could not read service account key %s: %w", cfg.Yandex.SpeechKit.KeyFile, err)
	}

	creds, err := ycsdk.ServiceAccountKey(key)
	if err != nil {
		return nil, fmt.Errorf("could not create service account credentials: %w", err)
	}

	sdk, err := ycsdk.Build(ctx, ycsdk.Config{
		Credentials: creds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Yandex SDK: %w", err)
	}

	return &YandexSpeechKit{
		cfg: cfg,
		sdk: sdk,
	}, nil
}

// Options returns the session options configured for language.
func (y *YandexSpeechKit) Options(language string) Options {
	return Options{
		Language:            language,
		Model:               y.cfg.Yandex.SpeechKit.Model,
		SampleRate:          y.cfg.Voice.SampleRate,
		EndOfUtterancePause: y.cfg.Yandex.SpeechKit.EndOfUtterancePause,
	}
}

// Start opens a streaming recognition session for one language. The caller sends the session
// config first, then audio chunks, and must Close the handle.
func (y *YandexSpeechKit) Start(ctx context.Context, language string) (*Handle, error) {
	ctx, cancel := context.WithCancel(ctx)

	stream, err := y.sdk.AI().STTV3().Recognizer().RecognizeStreaming(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open recognition stream: %w", err)
	}

	return &Handle{
		stream: stream,
		cancel: cancel,
		opts:   y.Options(language),
	}, nil
}

// Shutdown closes the SDK connections.
func (y *YandexSpeechKit) Shutdown() error {
	return y.sdk.Shutdown(context.Background())
}
