package network

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
	qrcode "github.com/skip2/go-qrcode"
)

const DefaultQRSize = 256

var wifiQREscape = strings.NewReplacer(`\`, `\\`, `;`, `\;`, `,`, `\,`, `:`, `\:`, `"`, `\"`)

// WifiQRContent is the "WIFI:" scheme phone cameras understand.
func WifiQRContent(ssid, password string) string {
	if password == "" {
		return fmt.Sprintf("WIFI:T:nopass;S:%s;;", wifiQREscape.Replace(ssid))
	}
	return fmt.Sprintf("WIFI:T:WPA;S:%s;P:%s;;", wifiQREscape.Replace(ssid), wifiQREscape.Replace(password))
}

// WritePortalQR renders portal join code as PNG.
func WritePortalQR(path string, size int, ssid, password string) error {
	if size <= 0 {
		size = DefaultQRSize
	}
	err := qrcode.WriteFile(WifiQRContent(ssid, password), qrcode.Medium, size, path)
	return errors.Annotatef(err, "portal qr path=%s", path)
}
