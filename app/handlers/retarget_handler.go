// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/app/dto"
	businessflow "github.com/xplorebytesolutions/growmycustomer-campaigns/business_flow"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/utils"
)

// RetargetHandlerInterface defines the contract for retarget handlers
type RetargetHandlerInterface interface {
	SubmitRetarget(c fiber.Ctx) error
	ListRetargets(c fiber.Ctx) error
}

// RetargetHandler handles retarget-related HTTP requests
type RetargetHandler struct {
	retargetFlow businessflow.RetargetFlow
	validator    *validator.Validate
}

func (h *RetargetHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *RetargetHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewRetargetHandler creates a new retarget handler
func NewRetargetHandler(retargetFlow businessflow.RetargetFlow) *RetargetHandler {
	return &RetargetHandler{
		retargetFlow: retargetFlow,
		validator:    validator.New(),
	}
}

// SubmitRetarget handles retarget campaign submission
// @Summary Submit Retarget Campaign
// @Description Build and submit a retarget campaign from selected contacts of a finished source campaign
// @Tags Retarget
// @Accept json
// @Produce json
// @Param id path string true "Source campaign ID"
// @Param request body dto.SubmitRetargetRequest true "Retarget submission data"
// @Success 201 {object} dto.APIResponse{data=dto.SubmitRetargetResponse} "Retarget campaign submitted successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 404 {object} dto.APIResponse "Source campaign not found"
// @Failure 422 {object} dto.APIResponse "Retarget validation failed"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{id}/retarget [post]
func (h *RetargetHandler) SubmitRetarget(c fiber.Ctx) error {
	var req dto.SubmitRetargetRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.CampaignID = c.Params("id")

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.retargetFlow.SubmitRetarget(h.createRequestContext(c, "/api/v1/campaigns/"+req.CampaignID+"/retarget"), &req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Source campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsRetargetValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, err.Error(), "RETARGET_VALIDATION_FAILED", nil)
		}

		log.Println("Retarget submission failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Retarget submission failed", "RETARGET_SUBMIT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// ListRetargets handles listing a campaign's past retarget submissions
// @Summary List Retarget Submissions
// @Description Return the campaign's past retarget submissions, newest first
// @Tags Retarget
// @Produce json
// @Param id path string true "Source campaign ID"
// @Param page query int false "1-based page number"
// @Param page_size query int false "Page size, max 100"
// @Success 200 {object} dto.APIResponse{data=dto.ListRetargetsResponse} "Retarget submissions retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{id}/retargets [get]
func (h *RetargetHandler) ListRetargets(c fiber.Ctx) error {
	page, err := parseOptionalInt(c.Query("page"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	pageSize, err := parseOptionalInt(c.Query("page_size"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	req := &dto.ListRetargetsRequest{
		CampaignID: c.Params("id"),
		Page:       page,
		PageSize:   pageSize,
	}

	if err := h.validator.Struct(req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.retargetFlow.ListSubmissions(h.createRequestContext(c, "/api/v1/campaigns/"+req.CampaignID+"/retargets"), req)
	if err != nil {
		log.Println("Retarget list failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list retarget submissions", "RETARGET_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *RetargetHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *RetargetHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
