// Package web provides HTTP handlers and REST API endpoints for campaign and
// lead management.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/getleadpipe/leadpipe/pkg/models"
	"github.com/getleadpipe/leadpipe/pkg/persistence"
	"github.com/getleadpipe/leadpipe/pkg/services"
)

type APIHandlers struct {
	campaignService *services.Campaign
	leadService     *services.Lead
	validator       *validator.Validate
}

func NewAPIHandlers(
	campaignService *services.Campaign,
	leadService *services.Lead,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		campaignService: campaignService,
		leadService:     leadService,
		validator:       validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.campaignService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Leadpipe API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Leadpipe API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetCampaigns(c fiber.Ctx) error {
	campaigns, err := h.campaignService.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"campaigns":   campaigns,
		"total_count": len(campaigns),
	})
}

func (h *APIHandlers) GetCampaign(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Campaign ID is required")
	}

	campaign, err := h.campaignService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsCampaignNotFound(err) {
			return notFound(c, "Campaign not found")
		}

		return internalError(c, err)
	}

	return c.JSON(campaign)
}

func (h *APIHandlers) CreateCampaign(c fiber.Ctx) error {
	var req CreateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	campaign, err := req.ToModel()
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.campaignService.Create(c.Context(), campaign)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) DeleteCampaign(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Campaign ID is required")
	}

	err := h.campaignService.Delete(c.Context(), id)
	if err != nil {
		if persistence.IsCampaignNotFound(err) {
			return notFound(c, "Campaign not found")
		}

		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) AttachLead(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Campaign ID is required")
	}

	var req AttachLeadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	record, err := h.campaignService.AttachLead(c.Context(), id, req.LeadID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *APIHandlers) GetCampaignLeads(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Campaign ID is required")
	}

	records, err := h.campaignService.Leads(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"leads":       records,
		"total_count": len(records),
	})
}

func (h *APIHandlers) GetCampaignResults(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Campaign ID is required")
	}

	results, err := h.campaignService.Results(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(results)
}

// CompileCampaignGraph resolves the graph the campaign would run and returns
// it, so a stored dynamic definition can be checked before starting.
func (h *APIHandlers) CompileCampaignGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Campaign ID is required")
	}

	spec, err := h.campaignService.Compile(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(spec)
}

func (h *APIHandlers) StartCampaign(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Campaign ID is required")
	}

	var req StartCampaignRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	campaign, err := h.campaignService.Start(c.Context(), id, req.RequestedBy)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(campaign)
}

func (h *APIHandlers) PauseCampaign(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Campaign ID is required")
	}

	campaign, err := h.campaignService.Pause(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(campaign)
}

func (h *APIHandlers) ResumeCampaign(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Campaign ID is required")
	}

	var req StartCampaignRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	campaign, err := h.campaignService.Resume(c.Context(), id, req.RequestedBy)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(campaign)
}

func (h *APIHandlers) GetLeads(c fiber.Ctx) error {
	leads, err := h.leadService.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"leads":       leads,
		"total_count": len(leads),
	})
}

func (h *APIHandlers) GetLead(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Lead ID is required")
	}

	lead, err := h.leadService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsLeadNotFound(err) {
			return notFound(c, "Lead not found")
		}

		return internalError(c, err)
	}

	return c.JSON(lead)
}

func (h *APIHandlers) CreateLead(c fiber.Ctx) error {
	var req CreateLeadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	lead := &models.Lead{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Company: req.Company,
		Notes:   req.Notes,
	}

	created, err := h.leadService.Create(c.Context(), lead)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateLead(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Lead ID is required")
	}

	var req UpdateLeadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.leadService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsLeadNotFound(err) {
			return notFound(c, "Lead not found")
		}

		return internalError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Phone != nil {
		existing.Phone = *req.Phone
	}

	if req.Email != nil {
		existing.Email = *req.Email
	}

	if req.Company != nil {
		existing.Company = *req.Company
	}

	if req.Notes != nil {
		existing.Notes = *req.Notes
	}

	updated, err := h.leadService.Update(c.Context(), id, existing)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteLead(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Lead ID is required")
	}

	err := h.leadService.Delete(c.Context(), id)
	if err != nil {
		if persistence.IsLeadNotFound(err) {
			return notFound(c, "Lead not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
