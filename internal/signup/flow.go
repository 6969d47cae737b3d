// Package signup drives the three-step account creation:
// register -> verify-otp -> set-password -> complete.
// A step only advances after the backend accepts it.
package signup

import (
	"context"
	"errors"
	"strings"
	"time"

	"qrmarket/internal/drafts"
	"qrmarket/internal/models"
)

// ErrOutOfStep is returned when an action does not match the draft's step,
// typically after the draft expired.
var ErrOutOfStep = errors.New("signup: action does not match current step")

// DraftTTL bounds how long an unfinished signup survives. A visitor who
// wanders off and comes back later starts over at the register step.
const DraftTTL = 15 * time.Minute

// Backend is the subset of the auth service the flow needs.
type Backend interface {
	Register(ctx context.Context, email, firstName, lastName string) error
	ResendCode(ctx context.Context, email, firstName, lastName string) error
	VerifyOTP(ctx context.Context, email, otp string) error
	SetPassword(ctx context.Context, email, password, confirm string) error
}

type Flow struct {
	auth   Backend
	drafts *drafts.Service
}

func New(auth Backend, d *drafts.Service) *Flow {
	return &Flow{auth: auth, drafts: d}
}

// Current returns the browser's draft, or a fresh one at the register step.
func (f *Flow) Current(ctx context.Context, browserID string) (models.SignupDraft, error) {
	var d models.SignupDraft
	ok, err := f.drafts.Load(ctx, browserID, models.DraftSignup, &d)
	if err != nil {
		return models.SignupDraft{Step: models.StepRegister}, err
	}
	if !ok || d.Step == "" {
		return models.SignupDraft{Step: models.StepRegister}, nil
	}
	return d, nil
}

// Register submits step one. The returned draft always carries the input so
// a failed form can be shown again.
func (f *Flow) Register(ctx context.Context, browserID, email, firstName, lastName string) (models.SignupDraft, error) {
	d := models.SignupDraft{
		Step:      models.StepRegister,
		Email:     strings.TrimSpace(email),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	}
	if err := f.auth.Register(ctx, d.Email, d.FirstName, d.LastName); err != nil {
		return d, err
	}
	d.Step = models.StepVerifyOTP
	return d, f.drafts.SaveFor(ctx, browserID, models.DraftSignup, d, DraftTTL)
}

// Resend asks for a new code for the captured email.
func (f *Flow) Resend(ctx context.Context, browserID string) (models.SignupDraft, error) {
	d, err := f.expect(ctx, browserID, models.StepVerifyOTP)
	if err != nil {
		return d, err
	}
	return d, f.auth.ResendCode(ctx, d.Email, d.FirstName, d.LastName)
}

func (f *Flow) VerifyOTP(ctx context.Context, browserID, otp string) (models.SignupDraft, error) {
	d, err := f.expect(ctx, browserID, models.StepVerifyOTP)
	if err != nil {
		return d, err
	}
	if err := f.auth.VerifyOTP(ctx, d.Email, strings.TrimSpace(otp)); err != nil {
		return d, err
	}
	d.Step = models.StepSetPassword
	return d, f.drafts.SaveFor(ctx, browserID, models.DraftSignup, d, DraftTTL)
}

// SetPassword finishes the flow and discards the draft. No session is
// created; the user signs in afterwards.
func (f *Flow) SetPassword(ctx context.Context, browserID, password, confirm string) (models.SignupDraft, error) {
	d, err := f.expect(ctx, browserID, models.StepSetPassword)
	if err != nil {
		return d, err
	}
	if err := f.auth.SetPassword(ctx, d.Email, password, confirm); err != nil {
		return d, err
	}
	d.Step = models.StepComplete
	return d, f.drafts.Clear(ctx, browserID, models.DraftSignup)
}

// Abandon is the "back to login" escape from any step.
func (f *Flow) Abandon(ctx context.Context, browserID string) error {
	return f.drafts.Clear(ctx, browserID, models.DraftSignup)
}

func (f *Flow) expect(ctx context.Context, browserID string, step models.SignupStep) (models.SignupDraft, error) {
	d, err := f.Current(ctx, browserID)
	if err != nil {
		return d, err
	}
	if d.Step != step {
		return d, ErrOutOfStep
	}
	return d, nil
}
