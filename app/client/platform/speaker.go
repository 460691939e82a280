package platform

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// Speaker plays text through an external speech synthesis command such as espeak-ng.
type Speaker struct {
	ctx     context.Context
	command string
	args    []string

	mu      sync.Mutex
	current *exec.Cmd
}

func NewSpeaker(ctx context.Context, command string, args []string) *Speaker {
	return &Speaker{
		ctx:     ctx,
		command: command,
		args:    args,
	}
}

// Speak interrupts any utterance in progress and starts speaking text. It does not wait for playback to finish.
func (s *Speaker) Speak(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	args := append(append([]string{}, s.args...), text)
	cmd := exec.CommandContext(s.ctx, s.command, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", s.command, err)
	}
	s.current = cmd

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			slog.Debug("tts", "stderr", scanner.Text())
		}

		_ = cmd.Wait()

		s.mu.Lock()
		if s.current == cmd {
			s.current = nil
		}
		s.mu.Unlock()
	}()

	return nil
}

func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
}

func (s *Speaker) stopLocked() {
	if s.current != nil && s.current.Process != nil {
		_ = s.current.Process.Kill()
	}
	s.current = nil
}
