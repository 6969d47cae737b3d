package web

import (
	"errors"
	"net/http"
	"net/url"
	"slices"

	"github.com/gorilla/mux"

	"qrmarket/internal/models"
	"qrmarket/internal/qrimage"
	"qrmarket/internal/services/commerce"
)

const (
	msgNoProduct        = "No product selected"
	msgIncompleteCustom = "Please complete all customizations before checkout"
	msgQRGenerateFailed = "Failed to generate QR code"
	msgNoCustomization  = "No customization found. Please start over."
	msgMissingOrder     = "Missing authentication or order information"
	msgOrderLoadFailed  = "Failed to load order details"
)

// customizeForm is the state of the customize page between submits.
type customizeForm struct {
	ProductID string
	Color     string
	Size      string
	QRType    string
	QRText    string
	QRImage   string
}

func (f customizeForm) design(p models.Product) (models.ShirtDesign, bool) {
	for _, d := range p.ShirtDesigns {
		if d.ColorCode == f.Color {
			return d, true
		}
	}
	return models.ShirtDesign{}, false
}

func (h *Handler) Customize(w http.ResponseWriter, r *http.Request) {
	f := customizeForm{
		ProductID: r.URL.Query().Get("productId"),
		Size:      models.DefaultShirtSize,
		QRType:    "url",
	}
	h.renderCustomize(w, r, f, "")
}

func (h *Handler) CustomizeSubmit(w http.ResponseWriter, r *http.Request) {
	f := customizeForm{
		ProductID: form(r, "productId"),
		Color:     form(r, "color"),
		Size:      form(r, "size"),
		QRType:    form(r, "qrType"),
		QRText:    form(r, "qrText"),
		QRImage:   r.PostFormValue("qrImage"),
	}
	if f.QRType != "text" {
		f.QRType = "url"
	}

	if r.PostFormValue("action") == "generate" {
		img, err := qrimage.DataURL(f.QRText)
		switch {
		case errors.Is(err, qrimage.ErrEmpty):
			h.renderCustomize(w, r, f, err.Error())
		case err != nil:
			h.log(r).Warnf("qr generate: %v", err)
			h.renderCustomize(w, r, f, msgQRGenerateFailed)
		default:
			f.QRImage = img
			h.renderCustomize(w, r, f, "")
		}
		return
	}

	if f.Color == "" || f.Size == "" || f.QRText == "" || f.QRImage == "" || !slices.Contains(models.ShirtSizes, f.Size) {
		h.renderCustomize(w, r, f, msgIncompleteCustom)
		return
	}
	product, err := h.d.Commerce.Product(r.Context(), f.ProductID)
	if err != nil {
		h.renderCustomize(w, r, f, h.userMessage(r, err))
		return
	}
	design, ok := f.design(product)
	if !ok {
		h.renderCustomize(w, r, f, msgIncompleteCustom)
		return
	}
	// the stored image is rendered here from the text, not taken from the form
	img, err := qrimage.DataURL(f.QRText)
	if err != nil {
		h.renderCustomize(w, r, f, msgQRGenerateFailed)
		return
	}
	mockup := design.MockupImageURL
	if mockup == "" {
		mockup = product.ThumbnailURL
	}
	draft := models.ShirtCustomization{
		ProductID:      product.ID,
		ShirtColor:     design.ColorCode,
		ShirtColorName: design.ColorName,
		ShirtSize:      f.Size,
		ShirtMockupURL: mockup,
		QRCodeText:     f.QRText,
		QRCodeType:     f.QRType,
		QRCodeImage:    img,
		Price:          product.BasePrice,
	}
	s := sess(r)
	if err := h.d.Drafts.Save(r.Context(), s.BrowserID, models.DraftShirtCustomization, draft); err != nil {
		h.log(r).Errorf("save customization: %v", err)
		h.renderCustomize(w, r, f, "Failed to save your customization. Please try again.")
		return
	}
	if !s.Authenticated() {
		seeOther(w, r, "/login?returnUrl="+url.QueryEscape("/checkout"))
		return
	}
	seeOther(w, r, "/checkout")
}

func (h *Handler) renderCustomize(w http.ResponseWriter, r *http.Request, f customizeForm, errMsg string) {
	data := map[string]any{"Title": "Customize", "Form": f, "Sizes": models.ShirtSizes}
	if f.ProductID == "" {
		data["Error"] = msgNoProduct
		h.render(w, r, "customize.tmpl", data)
		return
	}
	product, err := h.d.Commerce.Product(r.Context(), f.ProductID)
	if err != nil {
		data["Error"] = h.userMessage(r, err)
		h.render(w, r, "customize.tmpl", data)
		return
	}
	if f.Color == "" && len(product.ShirtDesigns) > 0 {
		f.Color = product.ShirtDesigns[0].ColorCode
	}
	design, _ := f.design(product)
	mockup := design.MockupImageURL
	if mockup == "" {
		mockup = product.ThumbnailURL
	}
	data["Form"] = f
	data["Product"] = product
	data["Design"] = design
	data["Mockup"] = mockup
	if errMsg != "" {
		data["Error"] = errMsg
	}
	h.render(w, r, "customize.tmpl", data)
}

func (h *Handler) loadCustomization(r *http.Request) (models.ShirtCustomization, bool, error) {
	var c models.ShirtCustomization
	ok, err := h.d.Drafts.Load(r.Context(), sess(r).BrowserID, models.DraftShirtCustomization, &c)
	return c, ok, err
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	c, ok, err := h.loadCustomization(r)
	data := map[string]any{"Title": "Checkout"}
	switch {
	case err != nil:
		h.log(r).Errorf("load customization: %v", err)
		data["Error"] = "Failed to load customization"
	case !ok:
		data["Error"] = msgNoCustomization
	default:
		data["Customization"] = c
		data["Address"] = prefillAddress(sess(r).User)
	}
	h.render(w, r, "checkout.tmpl", data)
}

// prefillAddress seeds the form from the signed-in account.
func prefillAddress(u *models.User) models.ShippingAddress {
	var a models.ShippingAddress
	if u == nil {
		return a
	}
	a.Email = u.Email
	for i, ch := range u.Email {
		if ch == '@' {
			a.FullName = u.Email[:i]
			break
		}
	}
	return a
}

func (h *Handler) CheckoutSubmit(w http.ResponseWriter, r *http.Request) {
	c, ok, err := h.loadCustomization(r)
	if err != nil || !ok {
		if err != nil {
			h.log(r).Errorf("load customization: %v", err)
		}
		h.render(w, r, "checkout.tmpl", map[string]any{"Title": "Checkout", "Error": msgNoCustomization})
		return
	}
	addr := models.ShippingAddress{
		FullName:   form(r, "fullName"),
		Email:      form(r, "email"),
		Phone:      form(r, "phone"),
		Street:     form(r, "street"),
		City:       form(r, "city"),
		State:      form(r, "state"),
		PostalCode: form(r, "postalCode"),
		Country:    form(r, "country"),
	}
	order, err := h.d.Commerce.Checkout(apiCtx(r), c, addr)
	if err != nil {
		h.render(w, r, "checkout.tmpl", map[string]any{
			"Title": "Checkout", "Customization": c, "Address": addr, "Error": h.userMessage(r, err),
		})
		return
	}
	if err := h.d.Drafts.Clear(r.Context(), sess(r).BrowserID, models.DraftShirtCustomization); err != nil {
		h.log(r).Warnf("clear customization: %v", err)
	}
	seeOther(w, r, "/payment?orderId="+url.QueryEscape(order.ID))
}

func (h *Handler) Payment(w http.ResponseWriter, r *http.Request) {
	h.renderPayment(w, r, r.URL.Query().Get("orderId"), "")
}

func (h *Handler) renderPayment(w http.ResponseWriter, r *http.Request, orderID, errMsg string) {
	data := map[string]any{"Title": "Payment", "OrderID": orderID}
	if orderID == "" {
		data["Error"] = msgMissingOrder
		h.render(w, r, "payment.tmpl", data)
		return
	}
	order, err := h.d.Commerce.Order(apiCtx(r), orderID)
	if err != nil {
		h.log(r).Warnf("load order %s: %v", orderID, err)
		data["Error"] = msgOrderLoadFailed
		h.render(w, r, "payment.tmpl", data)
		return
	}
	data["Order"] = order
	if errMsg != "" {
		data["Error"] = errMsg
	}
	h.render(w, r, "payment.tmpl", data)
}

func (h *Handler) PaymentSubmit(w http.ResponseWriter, r *http.Request) {
	orderID := form(r, "orderId")
	if orderID == "" {
		h.renderPayment(w, r, "", "")
		return
	}
	card := commerce.NormalizeCard(models.CardDetails{
		Number: r.PostFormValue("cardNumber"),
		Expiry: r.PostFormValue("expiry"),
		CVC:    r.PostFormValue("cvc"),
	})
	order, err := h.d.Commerce.Order(apiCtx(r), orderID)
	if err != nil {
		h.log(r).Warnf("load order %s: %v", orderID, err)
		h.renderPayment(w, r, orderID, msgOrderLoadFailed)
		return
	}
	if err := h.d.Commerce.Pay(apiCtx(r), order, card); err != nil {
		h.render(w, r, "payment.tmpl", map[string]any{
			"Title": "Payment", "OrderID": orderID, "Order": order, "Error": h.userMessage(r, err),
		})
		return
	}
	seeOther(w, r, "/order-confirmation?orderId="+url.QueryEscape(orderID))
}

func (h *Handler) OrderConfirmation(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	data := map[string]any{"Title": "Order confirmed"}
	if orderID == "" {
		data["Error"] = msgMissingOrder
		h.render(w, r, "order_confirmation.tmpl", data)
		return
	}
	order, err := h.d.Commerce.Order(apiCtx(r), orderID)
	if err != nil {
		h.log(r).Warnf("load order %s: %v", orderID, err)
		data["Error"] = msgOrderLoadFailed
	} else {
		data["Order"] = order
	}
	h.render(w, r, "order_confirmation.tmpl", data)
}

// Scan resolves a printed code's slug and sends the visitor on; any failure
// lands on the home page.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	dest, err := h.d.Commerce.Scan(r.Context(), slug)
	if err != nil {
		h.log(r).Infof("scan %s: %v", slug, err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	u, err := url.Parse(dest)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		h.log(r).Warnf("scan %s: refusing destination %q", slug, dest)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, u.String(), http.StatusFound)
}
