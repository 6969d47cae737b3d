package models

// ShippingAddress is the checkout form; every field is required.
type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// Order is read-only for this client; payment and fulfillment mutate it upstream.
type Order struct {
	ID                   string          `json:"_id"`
	ProductID            string          `json:"productId"`
	QRCodeID             string          `json:"qrCodeId"`
	ShirtColor           string          `json:"shirtColor"`
	ShirtSize            string          `json:"shirtSize"`
	ShirtMockupURL       string          `json:"shirtMockupUrl,omitempty"`
	Amount               float64         `json:"amount"`
	Quantity             int             `json:"quantity"`
	PaymentStatus        string          `json:"paymentStatus"`
	OrderStatus          string          `json:"orderStatus"`
	PrintProviderOrderID string          `json:"printProviderOrderId,omitempty"`
	TrackingURL          string          `json:"trackingUrl,omitempty"`
	ShippingAddress      ShippingAddress `json:"shippingAddress"`
}

// CreateOrderInput is the body of POST /orders.
type CreateOrderInput struct {
	ProductID       string          `json:"productId"`
	QRCodeID        string          `json:"qrCodeId"`
	ShirtColor      string          `json:"shirtColor"`
	ShirtSize       string          `json:"shirtSize"`
	ShirtMockupURL  string          `json:"shirtMockupUrl"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Quantity        int             `json:"quantity"`
}

// PrintQRCodeInput is the body of POST /qrcodes (the code printed on a shirt).
type PrintQRCodeInput struct {
	Type           string `json:"type"` // url|text
	DestinationURL string `json:"destinationUrl"`
}

// CardDetails is the payment form. Only the last four digits leave this process.
type CardDetails struct {
	Number string `validate:"required,max=16"`
	Expiry string `validate:"required,max=5"`
	CVC    string `validate:"required,max=4"`
}

func (c CardDetails) Last4() string {
	if len(c.Number) <= 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// PaymentInput is the body of POST /payments/initiate.
type PaymentInput struct {
	OrderID       string  `json:"orderId"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	CardLast4     string  `json:"cardLast4"`
}
