package handlers

import (
	"errors"
	"log"

	"waiterfm/internal/apperrors"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponder renders service errors as JSON with the matching status code.
type ErrorResponder struct {
	// ShowDetails adds the wrapped cause to responses. Off in production.
	ShowDetails bool
}

// Respond writes err to the client.
func (r ErrorResponder) Respond(c *fiber.Ctx, err error) error {
	kind := apperrors.KindOf(err)
	body := fiber.Map{}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body["error"] = appErr.Message
		if len(appErr.Fields) > 0 {
			body["errors"] = appErr.Fields
		}
		if r.ShowDetails && appErr.Err != nil {
			body["details"] = appErr.Err.Error()
		}
	} else {
		body["error"] = "Internal server error"
		if r.ShowDetails {
			body["details"] = err.Error()
		}
	}

	if kind == apperrors.Internal {
		log.Printf("Internal error on %s %s: %v", c.Method(), c.Path(), err)
		if appErr != nil {
			body["error"] = "Internal server error"
		}
	}
	return c.Status(kind.HTTPStatus()).JSON(body)
}

// invalidBody reports an unparsable request body.
func (r ErrorResponder) invalidBody(c *fiber.Ctx, err error) error {
	log.Printf("Error parsing request body on %s: %v", c.Path(), err)
	return r.Respond(c, apperrors.Wrap(apperrors.InvalidInput, err, "Invalid request body"))
}
