package web

import (
	"errors"

	"github.com/dukex/botflow/pkg/services"
	"github.com/dukex/botflow/pkg/wiring"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// fieldsProblem carries per-input messages for blocked edits.
type fieldsProblem struct {
	*problems.Problem

	Fields map[string]string `json:"fields,omitempty"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, kind, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsNotFound(err):
		switch {
		case errors.Is(err, wiring.ErrNodeNotFound):
			return notFound(c, "node_not_found", "node not found")
		case errors.Is(err, wiring.ErrActionNotFound):
			return notFound(c, "action_not_found", "action definition not found")
		default:
			return notFound(c, "workflow_not_found", "workflow not found")
		}

	case services.IsValidationError(err):
		var inputErr *wiring.InputError
		if errors.As(err, &inputErr) {
			problem := problems.NewStatusProblem(422).
				WithInstance(c.Path()).
				WithType("input_error").
				WithDetail(err.Error())

			return c.Status(fiber.StatusUnprocessableEntity).JSON(fieldsProblem{Problem: problem, Fields: inputErr.Fields})
		}

		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	default:
		return internalError(c, err)
	}
}
