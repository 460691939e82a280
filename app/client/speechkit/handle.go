package speechkit

import (
	"context"
	"fmt"
	"strings"

	"github.com/yandex-cloud/go-genproto/yandex/cloud/ai/stt/v3"
)

// Handle is one open recognition stream. Send and Recv may be used from different goroutines.
type Handle struct {
	stream stt.Recognizer_RecognizeStreamingClient
	cancel context.CancelFunc
	opts   Options
}

// Send forwards a chunk of 16-bit mono PCM.
func (h *Handle) Send(content []byte) error {
	var req stt.StreamingRequest
	req.SetChunk(&stt.AudioChunk{
		Data: content,
	})

	return h.stream.Send(&req)
}

func (h *Handle) SendConfig() error {
	return h.stream.Send(sessionRequest(h.opts))
}

// Recv blocks for the next server message and returns the non-empty alternatives of a final result.
// Partial results yield nil.
func (h *Handle) Recv() ([]string, error) {
	res, err := h.stream.Recv()
	if err != nil {
		return nil, fmt.Errorf("failed to receive recognition result: %w", err)
	}

	return finalTexts(res), nil
}

// Close half-closes the stream and cancels it.
func (h *Handle) Close() error {
	err := h.stream.CloseSend()
	h.cancel()
	return err
}

func sessionRequest(opts Options) *stt.StreamingRequest {
	var audioFormat stt.AudioFormatOptions
	audioFormat.SetRawAudio(&stt.RawAudio{
		AudioEncoding:     stt.RawAudio_LINEAR16_PCM,
		SampleRateHertz:   int64(opts.SampleRate),
		AudioChannelCount: 1,
	})

	var eou stt.EouClassifierOptions
	eou.SetDefaultClassifier(&stt.DefaultEouClassifier{
		Type:                       stt.DefaultEouClassifier_HIGH,
		MaxPauseBetweenWordsHintMs: opts.EndOfUtterancePause.Milliseconds(),
	})

	var req stt.StreamingRequest
	req.SetSessionOptions(&stt.StreamingOptions{
		RecognitionModel: &stt.RecognitionModelOptions{
			Model:       opts.Model,
			AudioFormat: &audioFormat,
			LanguageRestriction: &stt.LanguageRestrictionOptions{
				RestrictionType: stt.LanguageRestrictionOptions_WHITELIST,
				LanguageCode:    []string{opts.Language},
			},
		},
		EouClassifier: &eou,
	})

	return &req
}

func finalTexts(res *stt.StreamingResponse) []string {
	final := res.GetFinal()
	if final == nil {
		return nil
	}

	texts := make([]string, 0, len(final.GetAlternatives()))
	for _, alt := range final.GetAlternatives() {
		if text := strings.TrimSpace(alt.GetText()); text != "" {
			texts = append(texts, text)
		}
	}

	return texts
}
