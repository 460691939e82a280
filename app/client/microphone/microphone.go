package microphone

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	channels        = 1
	framesPerBuffer = 1024
	pollInterval    = 10 * time.Millisecond
)

var _ io.ReadCloser = (*Microphone)(nil)

// Microphone streams the default input device as mono 16-bit little-endian PCM.
type Microphone struct {
	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	pending []byte
	closed  bool
}

func Open(sampleRate int) (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	m := &Microphone{
		buffer: make([]int16, framesPerBuffer),
	}

	stream, err := portaudio.OpenDefaultStream(channels, 0, float64(sampleRate), framesPerBuffer, m.buffer)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}

	if err = stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}

	m.stream = stream

	return m, nil
}

// Read blocks until at least one buffer of audio is available. It returns io.EOF once closed.
func (m *Microphone) Read(p []byte) (int, error) {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return 0, io.EOF
		}

		if len(m.pending) > 0 {
			n := copy(p, m.pending)
			m.pending = m.pending[n:]
			m.mu.Unlock()
			return n, nil
		}

		available, err := m.stream.AvailableToRead()
		if err != nil || available < framesPerBuffer {
			m.mu.Unlock()
			time.Sleep(pollInterval)
			continue
		}

		if err = m.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			m.mu.Unlock()
			return 0, fmt.Errorf("failed to read input stream: %w", err)
		}

		m.pending = m.pending[:0]
		for _, sample := range m.buffer {
			m.pending = binary.LittleEndian.AppendUint16(m.pending, uint16(sample))
		}
		m.mu.Unlock()
	}
}

func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	_ = m.stream.Stop()
	_ = m.stream.Close()

	return portaudio.Terminate()
}
