// Package qrcode maps QR code lifecycle operations onto the backend /qrcode endpoints.
package qrcode

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"qrmarket/internal/apiclient"
	"qrmarket/internal/models"
	"qrmarket/internal/validate"
)

type Service struct {
	api *apiclient.Client
	now func() time.Time
}

func New(api *apiclient.Client) *Service {
	return &Service{api: api, now: time.Now}
}

func path(id string) string { return "/qrcode/" + url.PathEscape(id) }

// Create registers a new code. URL and expiry are checked locally first.
func (s *Service) Create(ctx context.Context, in models.CreateQRCodeInput) (models.QRCode, error) {
	in.DestinationURL = strings.TrimSpace(in.DestinationURL)
	if err := validate.CreateQRCode(in, s.now()); err != nil {
		return models.QRCode{}, err
	}
	return apiclient.Call[models.QRCode](ctx, s.api, http.MethodPost, "/qrcode", in)
}

// List returns the codes of the caller identified by the bearer token.
func (s *Service) List(ctx context.Context) ([]models.QRCode, error) {
	return apiclient.Call[[]models.QRCode](ctx, s.api, http.MethodGet, "/qrcode", nil)
}

func (s *Service) Get(ctx context.Context, id string) (models.QRCode, error) {
	return apiclient.Call[models.QRCode](ctx, s.api, http.MethodGet, path(id), nil)
}

// Update applies a partial change; nil fields are left untouched.
func (s *Service) Update(ctx context.Context, id string, in models.UpdateQRCodeInput) (models.QRCode, error) {
	if err := validate.UpdateQRCode(in, s.now()); err != nil {
		return models.QRCode{}, err
	}
	return apiclient.Call[models.QRCode](ctx, s.api, http.MethodPut, path(id), in)
}

// RotateLink points an existing code at a new destination. Slug and scan count are kept.
func (s *Service) RotateLink(ctx context.Context, id, destinationURL string) (models.QRCode, error) {
	destinationURL = strings.TrimSpace(destinationURL)
	if err := validate.DestinationURL(destinationURL); err != nil {
		return models.QRCode{}, err
	}
	return apiclient.Call[models.QRCode](ctx, s.api, http.MethodPost, path(id)+"/rotate-link",
		models.RotateLinkInput{DestinationURL: destinationURL})
}

// Disable deactivates a code. There is no way back.
func (s *Service) Disable(ctx context.Context, id string) (models.QRCode, error) {
	return apiclient.Call[models.QRCode](ctx, s.api, http.MethodPost, path(id)+"/disable", nil)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := apiclient.Call[struct {
		Message string `json:"message"`
	}](ctx, s.api, http.MethodDelete, path(id), nil)
	return err
}
