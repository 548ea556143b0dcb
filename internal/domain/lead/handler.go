package lead

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"leadflow/internal/domain"
	"leadflow/internal/middleware"
	"leadflow/internal/pkg/response"
	"leadflow/internal/pkg/validator"
)

// Handler handles lead HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates lead handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationFailed(c, errs)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// GetLead handles GET /api/v1/leads/:id
func (h *Handler) GetLead(c *gin.Context) {
	lead, err := h.service.GetLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, lead)
}

// ListComments handles GET /api/v1/leads/:id/comments
func (h *Handler) ListComments(c *gin.Context) {
	comments, err := h.service.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, comments)
}

// UpdateLead handles PATCH /api/v1/leads/:id
func (h *Handler) UpdateLead(c *gin.Context) {
	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationFailed(c, errs)
		return
	}

	lead, err := h.service.UpdateLead(c.Request.Context(), c.Param("id"), &req, middleware.Actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, lead)
}

// BulkUpdate handles PATCH /api/v1/leads/bulk
func (h *Handler) BulkUpdate(c *gin.Context) {
	var req BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationFailed(c, errs)
		return
	}

	n, err := h.service.BulkUpdate(c.Request.Context(), &req, middleware.Actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, BulkUpdateResponse{Updated: n})
}

// ListLeads handles GET /api/v1/leads
func (h *Handler) ListLeads(c *gin.Context) {
	page, err := h.service.ListLeads(c.Request.Context(), listParams(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

// ListCampaigns handles GET /api/v1/campaigns
func (h *Handler) ListCampaigns(c *gin.Context) {
	page, err := h.service.ListCampaigns(c.Request.Context(), listParams(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

// ListCampaignLeads handles GET /api/v1/campaigns/:id/leads
func (h *Handler) ListCampaignLeads(c *gin.Context) {
	page, err := h.service.ListCampaignLeads(c.Request.Context(), c.Param("id"), listParams(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

// ListStatuses handles GET /api/v1/statuses
func (h *Handler) ListStatuses(c *gin.Context) {
	out, err := h.service.Statuses(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// ListRequirementFields handles GET /api/v1/requirement-fields
func (h *Handler) ListRequirementFields(c *gin.Context) {
	out, err := h.service.RequirementFields(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// ListSources handles GET /api/v1/sources
func (h *Handler) ListSources(c *gin.Context) {
	out, err := h.service.Sources(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// ListTags handles GET /api/v1/tags
func (h *Handler) ListTags(c *gin.Context) {
	out, err := h.service.Tags(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrLeadNotFound):
		response.Error(c, http.StatusNotFound, "LEAD_NOT_FOUND", "Lead not found")
	case errors.Is(err, ErrCampaignNotFound):
		response.Error(c, http.StatusNotFound, "CAMPAIGN_NOT_FOUND", "Campaign not found")
	case errors.Is(err, ErrUnknownStatus):
		response.Error(c, http.StatusUnprocessableEntity, "UNKNOWN_STATUS", "Unknown lead status")
	case errors.Is(err, ErrUnknownSource):
		response.Error(c, http.StatusUnprocessableEntity, "UNKNOWN_SOURCE", "Unknown lead source")
	case errors.Is(err, ErrUnknownTag):
		response.Error(c, http.StatusUnprocessableEntity, "UNKNOWN_TAG", "Unknown tag")
	case errors.Is(err, ErrTagOperation):
		response.Error(c, http.StatusUnprocessableEntity, "TAG_OPERATION_REQUIRED", "Choose whether to add or remove the selected tags")
	case errors.Is(err, ErrEmptyUpdate):
		response.Error(c, http.StatusUnprocessableEntity, "EMPTY_UPDATE", "Nothing to update")
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
	}
}

func listParams(c *gin.Context) ListParams {
	p := ListParams{
		Page:  1,
		Limit: DefaultPageSize,
		Filter: domain.Filter{
			Search:   strings.TrimSpace(c.Query("search")),
			StatusID: c.Query("status"),
			SourceID: c.Query("source"),
			TagID:    c.Query("tag"),
		},
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	return p
}
