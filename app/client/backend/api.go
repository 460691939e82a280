package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

type askRequest struct {
	Message string `json:"message"`
}

type newsRequest struct {
	Question string `json:"question"`
	Days     int    `json:"days"`
	MaxLinks int    `json:"max_links"`
}

type Preferences struct {
	InvestmentStyle   string `json:"investmentStyle" validate:"required"`
	FavoriteCompanies string `json:"favoriteCompanies" validate:"required"`
}

type signupRequest struct {
	DeviceID  string `json:"deviceId"`
	PublicKey string `json:"publicKey"`
}

type loginStartRequest struct {
	DeviceID string `json:"deviceId"`
}

type loginVerifyRequest struct {
	DeviceID  string `json:"deviceId"`
	Challenge string `json:"challenge"`
	Signature string `json:"signature"`
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	FirstLogin   bool
}

// Ask sends a chat question. The answer is taken from data.answer, answer or message, first non-empty wins.
// An empty string means the backend returned none of them.
func (c *Client) Ask(ctx context.Context, message string) (string, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/chat/ask", askRequest{Message: message}, &raw); err != nil {
		return "", err
	}

	env := decodeEnvelope(raw)

	return firstNonEmpty(
		env.data.str("answer"),
		env.top.str("answer"),
		env.top.str("message"),
	), nil
}

// News asks for article links about question. The list is taken from data.urls, data.links, urls or links,
// first present array wins.
func (c *Client) News(ctx context.Context, question string, days, maxLinks int) ([]string, error) {
	var raw json.RawMessage
	req := newsRequest{
		Question: question,
		Days:     days,
		MaxLinks: maxLinks,
	}
	if err := c.post(ctx, "/news", req, &raw); err != nil {
		return nil, err
	}

	env := decodeEnvelope(raw)

	for _, lookup := range []struct {
		f   fields
		key string
	}{
		{env.data, "urls"},
		{env.data, "links"},
		{env.top, "urls"},
		{env.top, "links"},
	} {
		if urls, ok := lookup.f.stringList(lookup.key); ok {
			return urls, nil
		}
	}

	return []string{}, nil
}

func (c *Client) SavePreferences(ctx context.Context, prefs Preferences) error {
	return c.post(ctx, "/users/preferences", prefs, nil)
}

func (c *Client) BiometricSignup(ctx context.Context, deviceID, publicKey string) error {
	return c.post(ctx, "/auth/biometric-signup", signupRequest{
		DeviceID:  deviceID,
		PublicKey: publicKey,
	}, nil)
}

// BiometricLoginStart requests a signing challenge. Unknown devices yield ErrDeviceNotRegistered.
func (c *Client) BiometricLoginStart(ctx context.Context, deviceID string) (string, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/auth/biometric-login/start", loginStartRequest{DeviceID: deviceID}, &raw); err != nil {
		return "", notRegistered(err)
	}

	env := decodeEnvelope(raw)

	challenge := firstNonEmpty(env.data.str("challenge"), env.top.str("challenge"))
	if challenge == "" {
		return "", errors.New("login start response has no challenge")
	}

	return challenge, nil
}

func (c *Client) BiometricLoginVerify(ctx context.Context, deviceID, challenge, signature string) (*LoginResult, error) {
	var raw json.RawMessage
	req := loginVerifyRequest{
		DeviceID:  deviceID,
		Challenge: challenge,
		Signature: signature,
	}
	if err := c.post(ctx, "/auth/biometric-login/verify", req, &raw); err != nil {
		return nil, notRegistered(err)
	}

	env := decodeEnvelope(raw)

	result := &LoginResult{
		AccessToken:  firstNonEmpty(env.data.str("accessToken"), env.top.str("accessToken")),
		RefreshToken: firstNonEmpty(env.data.str("refreshToken"), env.top.str("refreshToken")),
		FirstLogin:   env.data.boolean("firstLogin") || env.top.boolean("firstLogin"),
	}

	if result.AccessToken == "" {
		return nil, errors.New("login verify response has no access token")
	}

	return result, nil
}

func notRegistered(err error) error {
	if StatusOf(err) == http.StatusNotFound {
		return errors.Join(ErrDeviceNotRegistered, err)
	}

	return err
}
