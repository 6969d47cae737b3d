// Package qrimage renders the preview QR code shown on the customize page.
package qrimage

import (
	"encoding/base64"
	"errors"
	"strings"

	"rsc.io/qr"
)

// TargetPixels is the approximate edge length of rendered images.
const TargetPixels = 300

var ErrEmpty = errors.New("Please enter text or URL for QR code")

// PNG encodes text at the highest error-correction level so the code still
// scans when printed on fabric.
func PNG(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmpty
	}
	code, err := qr.Encode(text, qr.H)
	if err != nil {
		return nil, err
	}
	// the encoder adds a 4 module border on each side
	if scale := TargetPixels / (code.Size + 8); scale > 1 {
		code.Scale = scale
	} else {
		code.Scale = 1
	}
	return code.PNG(), nil
}

// DataURL returns the PNG as a data: URL suitable for an <img> src.
func DataURL(text string) (string, error) {
	b, err := PNG(text)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b), nil
}
