package web

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"qrmarket/internal/apiclient"
	"qrmarket/internal/models"
	"qrmarket/internal/qrimage"
	"qrmarket/internal/qrmanager"
)

const (
	msgCreated  = "QR code created successfully!"
	msgRotated  = "Link rotated successfully!"
	msgDisabled = "QR Code disabled successfully!"
	msgDeleted  = "QR Code deleted successfully!"
)

// expiryLayout matches <input type="datetime-local">.
const expiryLayout = "2006-01-02T15:04"

func (h *Handler) manager(r *http.Request) *qrmanager.Manager {
	return h.d.QR.For(sess(r).BrowserID)
}

type createForm struct {
	Type           models.QRCodeType
	DestinationURL string
	ExpiresAt      string
}

func (h *Handler) QRCodesList(w http.ResponseWriter, r *http.Request) {
	m := h.manager(r)
	_ = m.Fetch(apiCtx(r)) // failure is kept in the manager's state
	h.renderList(w, r, m, createForm{Type: models.QRCodeCustomURL})
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, m *qrmanager.Manager, f createForm) {
	st := m.State()
	h.render(w, r, "qrcodes_list.tmpl", map[string]any{
		"Title": "QR Codes",
		"Nav":   "qrcodes",
		"State": st,
		"Error": st.Error,
		"Types": models.QRCodeTypes,
		"Form":  f,
	})
}

func (h *Handler) QRCodeCreate(w http.ResponseWriter, r *http.Request) {
	m := h.manager(r)
	f := createForm{
		Type:           models.QRCodeType(form(r, "type")),
		DestinationURL: form(r, "destinationUrl"),
		ExpiresAt:      form(r, "expiresAt"),
	}
	in := models.CreateQRCodeInput{Type: f.Type, DestinationURL: f.DestinationURL}
	if f.ExpiresAt != "" {
		t, err := time.ParseInLocation(expiryLayout, f.ExpiresAt, time.Local)
		if err != nil {
			h.renderListError(w, r, m, f, "Please enter a valid expiry date")
			return
		}
		in.ExpiresAt = &t
	}
	if _, err := m.Create(apiCtx(r), in); err != nil {
		h.renderListError(w, r, m, f, h.userMessage(r, err))
		return
	}
	h.flash(w, r, msgCreated)
	seeOther(w, r, "/dashboard/qrcodes")
}

func (h *Handler) renderListError(w http.ResponseWriter, r *http.Request, m *qrmanager.Manager, f createForm, msg string) {
	st := m.State()
	h.render(w, r, "qrcodes_list.tmpl", map[string]any{
		"Title":    "QR Codes",
		"Nav":      "qrcodes",
		"State":    st,
		"Error":    msg,
		"Types":    models.QRCodeTypes,
		"Form":     f,
		"ShowForm": true,
	})
}

func (h *Handler) publicURL(slug string) string {
	return h.d.CFG.Server.PublicURL + "/qr/" + url.PathEscape(slug)
}

func (h *Handler) QRCodeDetail(w http.ResponseWriter, r *http.Request) {
	h.renderDetail(w, r, mux.Vars(r)["id"], "", "")
}

func (h *Handler) renderDetail(w http.ResponseWriter, r *http.Request, id, rotateURL, errMsg string) {
	m := h.manager(r)
	data := map[string]any{"Title": "QR Code", "Nav": "qrcodes", "RotateURL": rotateURL}
	q, err := m.Get(apiCtx(r), id)
	if err != nil {
		data["Error"] = h.userMessage(r, err)
		h.renderStatus(w, r, statusFor(err), "qrcode_detail.tmpl", data)
		return
	}
	link := h.publicURL(q.Slug)
	img := q.QRCodeImageURL
	if img == "" {
		if img, err = qrimage.DataURL(link); err != nil {
			h.log(r).Warnf("qr preview: %v", err)
		}
	}
	data["Code"] = q
	data["PublicURL"] = link
	data["Image"] = img
	if rotateURL == "" {
		data["RotateURL"] = q.DestinationURL
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	h.render(w, r, "qrcode_detail.tmpl", data)
}

func statusFor(err error) int {
	if apiclient.StatusOf(err) == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusOK
}

func (h *Handler) QRCodeRotate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	dest := form(r, "destinationUrl")
	if _, err := h.manager(r).RotateLink(apiCtx(r), id, dest); err != nil {
		h.renderDetail(w, r, id, dest, h.userMessage(r, err))
		return
	}
	h.flash(w, r, msgRotated)
	seeOther(w, r, "/dashboard/qrcodes/"+url.PathEscape(id))
}

func (h *Handler) QRCodeDisable(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.manager(r).Disable(apiCtx(r), id); err != nil {
		h.renderDetail(w, r, id, "", h.userMessage(r, err))
		return
	}
	h.flash(w, r, msgDisabled)
	seeOther(w, r, "/dashboard/qrcodes/"+url.PathEscape(id))
}

func (h *Handler) QRCodeDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.manager(r).Delete(apiCtx(r), id); err != nil {
		h.renderDetail(w, r, id, "", h.userMessage(r, err))
		return
	}
	h.flash(w, r, msgDeleted)
	seeOther(w, r, "/dashboard/qrcodes")
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "profile.tmpl", map[string]any{"Title": "Profile", "Nav": "profile"})
}

func (h *Handler) placeholder(page, title string) http.HandlerFunc {
	nav := strings.TrimSuffix(page, ".tmpl")
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, page, map[string]any{"Title": title, "Nav": nav})
	}
}

// Analytics shows totals over the user's codes as the backend reports them.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	m := h.manager(r)
	data := map[string]any{"Title": "Analytics", "Nav": "analytics"}
	if err := m.Fetch(apiCtx(r)); err != nil {
		data["Error"] = h.userMessage(r, err)
	}
	now := h.clock()
	var scans, active int
	for _, q := range m.State().Items {
		scans += q.ScanCount
		if q.IsActive && !q.IsExpired(now) {
			active++
		}
	}
	data["TotalScans"] = scans
	data["ActiveCodes"] = active
	h.render(w, r, "analytics.tmpl", data)
}
