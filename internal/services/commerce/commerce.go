// Package commerce covers the catalog, order, payment and public scan endpoints.
package commerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"qrmarket/internal/apiclient"
	"qrmarket/internal/models"
	"qrmarket/internal/validate"
)

// ErrNoDestination is returned when a scan resolves without a destination.
var ErrNoDestination = errors.New("scan returned no destination")

type Service struct {
	api *apiclient.Client
}

func New(api *apiclient.Client) *Service {
	return &Service{api: api}
}

func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	return apiclient.Call[[]models.Product](ctx, s.api, http.MethodGet, "/products", nil)
}

func (s *Service) Product(ctx context.Context, id string) (models.Product, error) {
	return apiclient.Call[models.Product](ctx, s.api, http.MethodGet, "/products/"+url.PathEscape(id), nil)
}

// PrintQRCode creates the code that gets printed on a shirt.
func (s *Service) PrintQRCode(ctx context.Context, in models.PrintQRCodeInput) (models.QRCode, error) {
	return apiclient.Call[models.QRCode](ctx, s.api, http.MethodPost, "/qrcodes", in)
}

func (s *Service) CreateOrder(ctx context.Context, in models.CreateOrderInput) (models.Order, error) {
	return apiclient.Call[models.Order](ctx, s.api, http.MethodPost, "/orders", in)
}

func (s *Service) Order(ctx context.Context, id string) (models.Order, error) {
	return apiclient.Call[models.Order](ctx, s.api, http.MethodGet, "/orders/"+url.PathEscape(id), nil)
}

func (s *Service) InitiatePayment(ctx context.Context, in models.PaymentInput) error {
	_, err := apiclient.Call[any](ctx, s.api, http.MethodPost, "/payments/initiate", in)
	return err
}

// Scan resolves a public slug to its destination.
func (s *Service) Scan(ctx context.Context, slug string) (string, error) {
	res, err := apiclient.Call[models.ScanResult](ctx, s.api, http.MethodGet, "/qrcode/"+url.PathEscape(slug)+"/scan", nil)
	if err != nil {
		return "", err
	}
	if res.DestinationURL == "" {
		return "", ErrNoDestination
	}
	return res.DestinationURL, nil
}

// Checkout turns a customization draft into an order: the shipping form is
// checked first, then the printed QR code and the order are created in that
// order. A code whose order fails is left in place.
func (s *Service) Checkout(ctx context.Context, c models.ShirtCustomization, addr models.ShippingAddress) (models.Order, error) {
	addr = trimAddress(addr)
	if err := validate.Shipping(addr); err != nil {
		return models.Order{}, err
	}
	kind := "text"
	if c.QRCodeType == "url" {
		kind = "url"
	}
	code, err := s.PrintQRCode(ctx, models.PrintQRCodeInput{Type: kind, DestinationURL: c.QRCodeText})
	if err != nil {
		return models.Order{}, fmt.Errorf("create qr code: %w", err)
	}
	order, err := s.CreateOrder(ctx, models.CreateOrderInput{
		ProductID:       c.ProductID,
		QRCodeID:        code.ID,
		ShirtColor:      c.ShirtColor,
		ShirtSize:       c.ShirtSize,
		ShirtMockupURL:  c.ShirtMockupURL,
		ShippingAddress: addr,
		Quantity:        1,
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// Pay charges an order by card. Only the last four digits are sent.
func (s *Service) Pay(ctx context.Context, order models.Order, card models.CardDetails) error {
	card = NormalizeCard(card)
	if err := validate.Card(card); err != nil {
		return err
	}
	return s.InitiatePayment(ctx, models.PaymentInput{
		OrderID:       order.ID,
		Amount:        order.Amount,
		PaymentMethod: "card",
		CardLast4:     card.Last4(),
	})
}

// NormalizeCard strips spaces from the number and non-digits from the CVC.
func NormalizeCard(c models.CardDetails) models.CardDetails {
	c.Number = strings.Join(strings.Fields(c.Number), "")
	c.Expiry = strings.TrimSpace(c.Expiry)
	c.CVC = strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, c.CVC)
	return c
}

func trimAddress(a models.ShippingAddress) models.ShippingAddress {
	for _, f := range []*string{&a.FullName, &a.Email, &a.Phone, &a.Street, &a.City, &a.State, &a.PostalCode, &a.Country} {
		*f = strings.TrimSpace(*f)
	}
	return a
}
