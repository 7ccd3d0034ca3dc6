// Package server contains the HTTP handlers and routing for the CodeLearn API.
package server

import (
	"errors"
	"log/slog"
	"strings"

	"codelearn/internal/middleware"
	"codelearn/internal/models"

	"github.com/gofiber/fiber/v2"
)

const maxPageSize = 100

// Page is a limit/offset window read from the query string.
type Page struct {
	Limit  int
	Offset int
}

// parsePagination reads ?limit and ?offset. Out-of-range limits fall back to
// def or are capped at maxPageSize; negative offsets become 0.
func parsePagination(c *fiber.Ctx, def int) Page {
	limit := c.QueryInt("limit", def)
	switch {
	case limit <= 0:
		limit = def
	case limit > maxPageSize:
		limit = maxPageSize
	}
	return Page{Limit: limit, Offset: max(c.QueryInt("offset", 0), 0)}
}

// pathID reads a positive integer route parameter.
func pathID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("Invalid " + paramLabel(param))
	}
	return uint(id), nil
}

// paramLabel turns a route parameter into a message label:
// "id" is "ID" and "postId" is "post ID".
func paramLabel(param string) string {
	if param == "id" {
		return "ID"
	}
	stem, ok := strings.CutSuffix(param, "Id")
	if !ok {
		return param
	}
	var b strings.Builder
	for i, r := range stem {
		if i > 0 && 'A' <= r && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String()) + " ID"
}

// respondError writes err under the status of its code. Internal errors are
// logged with their cause and answered with the generic message only.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	appErr := models.AsAppError(err)
	if appErr.Code == models.CodeInternal {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("route", c.Method()+" "+c.Path()),
			slog.Any("error", err),
		)
	}
	return models.RespondWithError(c, appErr.HTTPStatus(), appErr)
}

func badRequest(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
}

// currentUserID is the caller set by AuthRequired, or 0.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// errorHandler is the app-level fallback for errors returned by handlers and
// for fiber's own errors such as unmatched routes.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	code := models.CodeValidation
	switch {
	case fe.Code == fiber.StatusNotFound:
		code = models.CodeNotFound
	case fe.Code >= fiber.StatusInternalServerError:
		code = models.CodeInternal
	}
	return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: code})
}
