// Package web provides HTTP handlers for workflow validation.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/wflguard/pkg/catalog"
	"github.com/dukex/wflguard/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	validationService *services.Validation
	validator         *validator.Validate
}

func NewAPIHandlers(validationService *services.Validation, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		validationService: validationService,
		validator:         validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	sinkCheck, sinkOk := h.validationService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "wflguard API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if sinkOk {
		status = "healthy"
		message = "wflguard API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"verdict_log": sinkCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// ValidateWorkflow judges the request body as a workflow document.
func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	query, err := h.parseQuery(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	req := query.request()

	return h.respond(c, c.Body(), req)
}

// ExtractWorkflow pulls the workflow out of generator text before judging it.
func (h *APIHandlers) ExtractWorkflow(c fiber.Ctx) error {
	query, err := h.parseQuery(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	var body ExtractRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(body); err != nil {
		return badRequest(c, err.Error())
	}

	req := query.request()
	req.Extract = true
	req.Name = body.Name

	return h.respond(c, []byte(body.Text), req)
}

func (h *APIHandlers) GetCatalog(c fiber.Ctx) error {
	return c.JSON(catalog.Snapshot())
}

func (h *APIHandlers) respond(c fiber.Ctx, raw []byte, req services.Request) error {
	verdict, err := h.validationService.Validate(c.Context(), raw, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	if !verdict.Valid {
		return rejected(c, verdict)
	}

	return c.JSON(verdict)
}

func (h *APIHandlers) parseQuery(c fiber.Ctx) (*ValidateQuery, error) {
	query := &ValidateQuery{}

	if err := c.Bind().Query(query); err != nil {
		return nil, err
	}

	if err := h.validator.Struct(query); err != nil {
		return nil, err
	}

	return query, nil
}

func (q *ValidateQuery) request() services.Request {
	return services.Request{
		Source:      "api",
		CheckOnly:   q.CheckOnly,
		StrictDates: q.StrictDates,
		SkipSchema:  q.SkipSchema,
		Preview:     q.Preview,
	}
}
