package platform

import (
	"context"
	"errors"
	"sync"

	"github.com/ncruces/zenity"
)

type Permission int

const (
	PermissionGranted Permission = iota
	PermissionDenied
	PermissionNeverAskAgain
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionNeverAskAgain:
		return "never_ask_again"
	default:
		return "denied"
	}
}

// MicrophonePrompter asks the user for microphone access with a desktop dialog.
// The answer is remembered for the lifetime of the process.
type MicrophonePrompter struct {
	mu      sync.Mutex
	granted bool
	blocked bool
}

func NewMicrophonePrompter() *MicrophonePrompter {
	return &MicrophonePrompter{}
}

func (p *MicrophonePrompter) Check() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.granted
}

func (p *MicrophonePrompter) Request(ctx context.Context) (Permission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.granted {
		return PermissionGranted, nil
	}
	if p.blocked {
		return PermissionNeverAskAgain, nil
	}

	err := zenity.Question(
		"음성 인식을 위해 마이크 권한이 필요합니다. 설정에서 권한을 허용해주세요.",
		zenity.Context(ctx),
		zenity.Title("마이크 권한 요청"),
		zenity.OKLabel("허용"),
		zenity.CancelLabel("거부"),
		zenity.ExtraButton("나중에"),
	)

	switch {
	case err == nil:
		p.granted = true
		return PermissionGranted, nil
	case errors.Is(err, zenity.ErrExtraButton):
		return PermissionDenied, nil
	case errors.Is(err, zenity.ErrCanceled):
		p.blocked = true
		return PermissionNeverAskAgain, nil
	default:
		return PermissionDenied, err
	}
}
