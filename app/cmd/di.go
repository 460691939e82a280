package cmd

import (
	"context"

	"eyestock/app/client/backend"
	"eyestock/app/client/platform"
	"eyestock/app/client/speechkit"
	"eyestock/app/config"
	"eyestock/app/mcpserver"
	"eyestock/app/server"
	"eyestock/app/service/auth"
	"eyestock/app/service/capture"
	"eyestock/app/service/correlation"
	"eyestock/app/service/display"
	"eyestock/app/service/engine"
	"eyestock/app/service/preview"
	"eyestock/app/service/queue"
	"eyestock/app/service/rotation"
	"eyestock/app/service/session"

	"github.com/samber/do"
)

func provide(di *do.Injector) {
	do.ProvideValue(di, platform.NewOpener())
	do.ProvideValue(di, platform.NewAlerter())
	do.ProvideValue(di, platform.NewMicrophonePrompter())
	do.Provide(di, newSpeaker)

	do.Provide(di, session.New)
	do.Provide(di, newTokenSource)
	do.Provide(di, backend.NewClient)
	do.Provide(di, auth.New)

	do.Provide(di, preview.NewCacheProvider)
	do.Provide(di, preview.New)
	do.Provide(di, rotation.NewController)

	do.Provide(di, speechkit.NewClient)
	do.Provide(di, capture.NewSpeechRecognizer)
	do.Provide(di, queue.New)
	do.Provide(di, capture.New)

	do.Provide(di, display.New)
	do.Provide(di, correlation.New)
	do.Provide(di, engine.New)

	do.Provide(di, server.New)
	do.Provide(di, mcpserver.New)
}

// provideScreen routes committed turns to the spoken display.
func provideScreen(di *do.Injector) {
	do.Provide(di, func(di *do.Injector) (correlation.Display, error) {
		return do.MustInvoke[*display.State](di), nil
	})
}

// provideHeadless routes committed turns to the log only.
func provideHeadless(di *do.Injector) {
	do.ProvideValue[correlation.Display](di, logDisplay{})
}

func newSpeaker(di *do.Injector) (*platform.Speaker, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return platform.NewSpeaker(do.MustInvoke[context.Context](di), cfg.TTS.Command, cfg.TTS.Args), nil
}

func newTokenSource(di *do.Injector) (backend.TokenSource, error) {
	return do.MustInvoke[*session.Store](di), nil
}
