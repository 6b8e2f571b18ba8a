package checkin

import (
	"fmt"
	"io"

	"github.com/yeqown/go-qrcode"
)

// QRContentType is the media type written by WriteQR.
const QRContentType = "image/jpeg"

// WriteQR renders payload as a JPEG QR code into w.
func WriteQR(w io.Writer, payload []byte) error {
	qrc, err := qrcode.New(string(payload))
	if err != nil {
		return fmt.Errorf("build qr: %w", err)
	}
	if err := qrc.SaveTo(w); err != nil {
		return fmt.Errorf("write qr: %w", err)
	}
	return nil
}
