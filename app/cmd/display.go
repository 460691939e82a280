package cmd

import (
	"log/slog"

	"eyestock/app/service/correlation"
)

type logDisplay struct{}

func (logDisplay) BeginTurn(utterance string) {
	slog.Debug("Asking", slog.String("question", utterance))
}

func (logDisplay) Commit(turn correlation.Turn) {
	slog.Debug("Answered",
		slog.String("mode", turn.Mode.String()),
		slog.Int("urls", len(turn.URLs)),
	)
}
