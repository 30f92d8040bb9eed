package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/connectpx/visitor-context/internal/visitor"
)

// addressHeaders are consulted in priority order before falling back to the
// transport remote address.
var addressHeaders = []string{
	"Client-Ip",
	"X-Forwarded-For",
	"X-Forwarded",
	"Forwarded-For",
	"Forwarded",
}

// clientAddress resolves the visitor address from proxy headers, falling
// back to the connection's remote address, else the UNKNOWN sentinel.
func clientAddress(c *fiber.Ctx) string {
	for _, h := range addressHeaders {
		v := c.Get(h)
		if v == "" {
			continue
		}
		// Forwarding headers may carry a comma-separated chain; the
		// left-most entry is the original client.
		if i := strings.IndexByte(v, ','); i >= 0 {
			v = v[:i]
		}
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	if ip := c.IP(); ip != "" {
		return ip
	}
	return visitor.UnknownAddress
}
