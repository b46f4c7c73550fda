// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/app/dto"
	businessflow "github.com/xplorebytesolutions/growmycustomer-campaigns/business_flow"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/utils"
)

// AudienceHandlerInterface defines the contract for audience handlers
type AudienceHandlerInterface interface {
	QueryAudience(c fiber.Ctx) error
	ExportAudience(c fiber.Ctx) error
}

// AudienceHandler handles audience-related HTTP requests
type AudienceHandler struct {
	audienceFlow businessflow.AudienceFlow
	exportFlow   businessflow.ExportFlow
	validator    *validator.Validate
}

func (h *AudienceHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AudienceHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewAudienceHandler creates a new audience handler
func NewAudienceHandler(audienceFlow businessflow.AudienceFlow, exportFlow businessflow.ExportFlow) *AudienceHandler {
	return &AudienceHandler{
		audienceFlow: audienceFlow,
		exportFlow:   exportFlow,
		validator:    validator.New(),
	}
}

// QueryAudience handles paginated audience queries for a campaign
// @Summary Query Campaign Audience
// @Description Return one page of the campaign's audience filtered by segment bucket, reply window, and search text
// @Tags Audience
// @Produce json
// @Param id path string true "Campaign ID"
// @Param bucket query string false "Segment bucket (ALL_RECIPIENTS, DELIVERED_NOT_READ, DELIVERED_NOT_REPLIED, READ_NOT_REPLIED, CLICKED_NOT_REPLIED, FAILED, REPLIED)"
// @Param window_days query int false "Reply window in days; 0 disables the window"
// @Param q query string false "Search over name, phone, and status"
// @Param page query int false "1-based page number"
// @Param page_size query int false "Page size, max 500"
// @Success 200 {object} dto.APIResponse{data=dto.AudienceQueryResponse} "Audience retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{id}/audience [get]
func (h *AudienceHandler) QueryAudience(c fiber.Ctx) error {
	req, err := h.parseAudienceQuery(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.audienceFlow.QueryAudience(h.createRequestContext(c, "/api/v1/campaigns/"+req.CampaignID+"/audience"), req)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("Audience query failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Audience query failed", "AUDIENCE_QUERY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ExportAudience handles audience export downloads
// @Summary Export Campaign Audience
// @Description Download the campaign's filtered audience as a CSV or XLSX file
// @Tags Audience
// @Produce octet-stream
// @Param id path string true "Campaign ID"
// @Param bucket query string false "Segment bucket"
// @Param window_days query int false "Reply window in days; 0 disables the window"
// @Param q query string false "Search over name, phone, and status"
// @Param format query string false "File format: csv or xlsx (default csv)"
// @Success 200 {file} binary "Export file"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{id}/audience/export [get]
func (h *AudienceHandler) ExportAudience(c fiber.Ctx) error {
	windowDays, err := parseOptionalIntPtr(c.Query("window_days"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	req := &dto.AudienceExportRequest{
		CampaignID: c.Params("id"),
		Bucket:     c.Query("bucket"),
		WindowDays: windowDays,
		Search:     c.Query("q"),
		Format:     c.Query("format", "csv"),
	}

	if err := h.validator.Struct(req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.exportFlow.ExportAudience(h.createRequestContext(c, "/api/v1/campaigns/"+req.CampaignID+"/audience/export"), req)
	if err != nil {
		if businessflow.IsExportFormatUnsupported(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported export format", "EXPORT_FORMAT_UNSUPPORTED", nil)
		}

		log.Println("Audience export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Audience export failed", "AUDIENCE_EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", result.ContentType)
	c.Set("Content-Disposition", "attachment; filename="+result.Filename)
	if result.Truncated {
		c.Set("X-Export-Truncated", "true")
	}
	return c.Send(result.Data)
}

func (h *AudienceHandler) parseAudienceQuery(c fiber.Ctx) (*dto.AudienceQueryRequest, error) {
	windowDays, err := parseOptionalIntPtr(c.Query("window_days"))
	if err != nil {
		return nil, err
	}
	page, err := parseOptionalInt(c.Query("page"))
	if err != nil {
		return nil, err
	}
	pageSize, err := parseOptionalInt(c.Query("page_size"))
	if err != nil {
		return nil, err
	}

	return &dto.AudienceQueryRequest{
		CampaignID: c.Params("id"),
		Bucket:     c.Query("bucket"),
		WindowDays: windowDays,
		Search:     c.Query("q"),
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func parseOptionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// parseOptionalIntPtr keeps "absent" and "explicit zero" distinguishable.
func parseOptionalIntPtr(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (h *AudienceHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *AudienceHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
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
