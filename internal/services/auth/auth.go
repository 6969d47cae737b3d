// Package auth maps account operations onto the backend /user endpoints.
// Every call validates its input before touching the network.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"qrmarket/internal/apiclient"
	"qrmarket/internal/models"
	"qrmarket/internal/validate"
)

// ErrNoToken is returned when a login succeeds upstream without a token.
var ErrNoToken = errors.New("login response carried no token")

type Service struct {
	api      *apiclient.Client
	platform models.Platform
}

func New(api *apiclient.Client, platform models.Platform) *Service {
	if platform == "" {
		platform = models.PlatformWeb
	}
	return &Service{api: api, platform: platform}
}

type loginRequest struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Platform models.Platform `json:"platform"`
}

type registerRequest struct {
	Email     string          `json:"email"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Platform  models.Platform `json:"platform"`
}

type otpRequest struct {
	Email    string          `json:"email"`
	OTP      string          `json:"otp"`
	Platform models.Platform `json:"platform"`
}

type setPasswordRequest struct {
	Email           string          `json:"email"`
	Password        string          `json:"password"`
	ConfirmPassword string          `json:"confirmPassword"`
	Platform        models.Platform `json:"platform"`
}

// Login exchanges credentials for a session token. Storing the token is the
// caller's job.
func (s *Service) Login(ctx context.Context, email, password string) (models.LoginResponse, error) {
	email = strings.TrimSpace(email)
	if err := validate.Login(email, password); err != nil {
		return models.LoginResponse{}, err
	}
	resp, err := apiclient.Call[models.LoginResponse](ctx, s.api, http.MethodPost, "/user/login",
		loginRequest{Email: email, Password: password, Platform: s.platform})
	if err != nil {
		return models.LoginResponse{}, err
	}
	if resp.Token == "" {
		return models.LoginResponse{}, ErrNoToken
	}
	if resp.Email == "" {
		resp.Email = email
	}
	return resp, nil
}

// Register is signup step one: the backend mails a one-time code. No token is issued.
func (s *Service) Register(ctx context.Context, email, firstName, lastName string) error {
	email = strings.TrimSpace(email)
	if err := validate.Registration(email, firstName, lastName); err != nil {
		return err
	}
	return s.sendCode(ctx, email, firstName, lastName)
}

// ResendCode asks the backend for a fresh one-time code for an already
// registered draft. Only the email is checked again.
func (s *Service) ResendCode(ctx context.Context, email, firstName, lastName string) error {
	if err := validate.Email(email); err != nil {
		return err
	}
	return s.sendCode(ctx, email, firstName, lastName)
}

func (s *Service) sendCode(ctx context.Context, email, firstName, lastName string) error {
	_, err := apiclient.Call[any](ctx, s.api, http.MethodPost, "/user/signup/email", registerRequest{
		Email:     email,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Platform:  s.platform,
	})
	return err
}

func (s *Service) VerifyOTP(ctx context.Context, email, otp string) error {
	if err := validate.OTP(otp); err != nil {
		return err
	}
	_, err := apiclient.Call[any](ctx, s.api, http.MethodPost, "/user/verify-otp",
		otpRequest{Email: email, OTP: otp, Platform: s.platform})
	return err
}

func (s *Service) SetPassword(ctx context.Context, email, password, confirm string) error {
	if err := validate.Password(password, confirm); err != nil {
		return err
	}
	_, err := apiclient.Call[any](ctx, s.api, http.MethodPost, "/user/set-password", setPasswordRequest{
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
		Platform:        s.platform,
	})
	return err
}

// MsgTokenRequired is reported when an email verification link has no token.
const MsgTokenRequired = "Verification token is required"

// VerifyEmail confirms an address from the link mailed by the backend and
// returns the backend's message.
func (s *Service) VerifyEmail(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", &validate.Error{Field: "token", Message: MsgTokenRequired}
	}
	var env apiclient.Envelope[any]
	if err := s.api.Do(ctx, http.MethodPost, "/user/verify-email", map[string]string{"token": token}, &env, nil); err != nil {
		return "", err
	}
	if env.Success != nil && !*env.Success {
		return "", &apiclient.APIError{Status: http.StatusOK, Message: env.Message}
	}
	return env.Message, nil
}

// ForwardVerifyEmail relays a verification token and hands back the
// backend's status and body unchanged.
func (s *Service) ForwardVerifyEmail(ctx context.Context, token string) (int, []byte, error) {
	return s.api.Forward(ctx, http.MethodPost, "/user/verify-email", map[string]string{"token": token})
}
