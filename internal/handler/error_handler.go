package handler

import (
	"errors"

	"go-catalog-ws/pkg/errs"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler turns returned errors into {"message"} responses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := errs.GetErrorStatusCode(err)
	message := err.Error()

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		log.Ctx(c.UserContext()).Error().Err(err).Str("component", "ErrorHandler").Str("path", c.Path()).Msg("")
		message = errs.ErrInternalServer.Error()
	}

	return c.Status(code).JSON(fiber.Map{"message": message})
}
