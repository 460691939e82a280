package auth

import (
	"context"
	"errors"
	"log/slog"

	"eyestock/app/client/backend"
	"eyestock/app/client/platform"
	"eyestock/app/config"
	"eyestock/app/service/session"
	"eyestock/app/util/mylog"

	"github.com/samber/do"
	"github.com/samber/oops"
)

const loginFailedTitle = "로그인 실패"

type Backend interface {
	BiometricSignup(ctx context.Context, deviceID, publicKey string) error
	BiometricLoginStart(ctx context.Context, deviceID string) (string, error)
	BiometricLoginVerify(ctx context.Context, deviceID, challenge, signature string) (*backend.LoginResult, error)
}

type TokenStore interface {
	Save(accessToken, refreshToken string) error
	Clear() error
}

type Alerter interface {
	Alert(title, message string)
}

type Service struct {
	backend Backend
	device  *Device
	tokens  TokenStore
	alerter Alerter
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	device, err := OpenDevice(cfg.Auth.DataDir)
	if err != nil {
		return nil, err
	}

	return NewService(
		do.MustInvoke[*backend.Client](di),
		device,
		do.MustInvoke[*session.Store](di),
		do.MustInvoke[*platform.Alerter](di),
	), nil
}

func NewService(client Backend, device *Device, tokens TokenStore, alerter Alerter) *Service {
	return &Service{
		backend: client,
		device:  device,
		tokens:  tokens,
		alerter: alerter,
	}
}

// Login runs the challenge-response login. An unregistered device is signed up with fresh keys
// and the login is attempted exactly once more.
func (s *Service) Login(ctx context.Context) (*backend.LoginResult, error) {
	errBuilder := oops.In("auth").With("device_id", s.device.ID())

	result, err := s.login(ctx)
	if errors.Is(err, backend.ErrDeviceNotRegistered) {
		slog.Warn("Device is not registered, signing up", slog.String("device_id", s.device.ID()))

		if err = s.signup(ctx); err == nil {
			result, err = s.login(ctx)
		}
	}

	if err != nil {
		slog.Warn("Login failed",
			slog.String("device_id", s.device.ID()),
			slog.Any("error", err),
			slog.Bool(mylog.TelegramKey, true),
		)
		s.alerter.Alert(loginFailedTitle, err.Error())
		return nil, errBuilder.Wrapf(err, "login failed")
	}

	if err = s.tokens.Save(result.AccessToken, result.RefreshToken); err != nil {
		return nil, errBuilder.Wrapf(err, "failed to store tokens")
	}

	slog.Info("Logged in",
		slog.String("device_id", s.device.ID()),
		slog.Bool("first_login", result.FirstLogin),
	)

	return result, nil
}

func (s *Service) Logout() error {
	return s.tokens.Clear()
}

func (s *Service) login(ctx context.Context) (*backend.LoginResult, error) {
	deviceID := s.device.ID()

	challenge, err := s.backend.BiometricLoginStart(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	signature, err := s.device.Sign(challenge)
	if err != nil {
		return nil, err
	}

	return s.backend.BiometricLoginVerify(ctx, deviceID, challenge, signature)
}

func (s *Service) signup(ctx context.Context) error {
	publicKey, err := s.device.CreateKeys()
	if err != nil {
		return err
	}

	return s.backend.BiometricSignup(ctx, s.device.ID(), publicKey)
}
