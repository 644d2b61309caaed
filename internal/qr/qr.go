package qr

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// EncodeBase64 renders the PIX copy-paste code as a 256px PNG and returns it
// base64-encoded, matching the shape the gateway uses for qr_code_base64.
// Used as a fallback when the gateway response carries only the text code.
func EncodeBase64(text string) (string, error) {
	png, err := qrcode.Encode(text, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
