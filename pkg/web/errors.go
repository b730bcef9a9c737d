package web

import (
	"github.com/dukex/wflguard/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// RejectionProblem is the 422 body for a rejected candidate. The problem type is the violation kind.
type RejectionProblem struct {
	*problems.Problem

	Verdict  *services.Verdict `json:"verdict"`
	Feedback string            `json:"feedback"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func rejected(c fiber.Ctx, verdict *services.Verdict) error {
	problem := problems.NewStatusProblem(422).
		WithInstance(c.Path()).
		WithType(verdict.Kind).
		WithDetail(verdict.Summary())

	return c.Status(fiber.StatusUnprocessableEntity).JSON(RejectionProblem{
		Problem:  problem,
		Verdict:  verdict,
		Feedback: verdict.Feedback(),
	})
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())
	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
