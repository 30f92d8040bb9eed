package httpapi

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/connectpx/visitor-context/internal/visitor"
)

var validate = validator.New()

// RegisterRoutes wires the visitor-context handlers into the Fiber app.
// Each endpoint mirrors a template tag of the host rendering system and
// returns an HTML fragment safe for direct embedding.
func RegisterRoutes(app *fiber.App, service *visitor.Service) {
	v1 := app.Group("/api/v1/visitor")

	v1.Get("/temperature", renderHandler(service.FormatTemperature))
	v1.Get("/greeting", renderHandler(service.FormatGreeting))
	v1.Get("/info", renderHandler(service.FormatVisitorInfo))
}

// renderQuery holds the optional query parameters shared by all three
// endpoints. An explicit ip overrides the address extracted from the
// request; template overrides the configured default.
type renderQuery struct {
	IP       string `validate:"omitempty,ip"`
	Template string
}

func parseRenderQuery(c *fiber.Ctx) (renderQuery, error) {
	q := renderQuery{
		IP:       c.Query("ip"),
		Template: c.Query("template"),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// renderHandler adapts one of the service's formatting entry points to a
// Fiber handler. The formatters never fail, so the only error surface here
// is query validation.
func renderHandler(format func(ctx context.Context, address, template string) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := parseRenderQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		address := q.IP
		if address == "" {
			address = clientAddress(c)
		}

		out := format(c.UserContext(), address, q.Template)

		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(out)
	}
}
