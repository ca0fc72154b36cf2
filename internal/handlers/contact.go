package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/pipegrid/pipegrid-api/internal/models"
	"github.com/pipegrid/pipegrid-api/internal/services"
	"github.com/pipegrid/pipegrid-api/pkg/dto"
)

type ContactHandler struct {
	contactService ContactServiceInterface
	memberService  MemberServiceInterface
}

func NewContactHandler(contactService ContactServiceInterface, memberService MemberServiceInterface) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		memberService:  memberService,
	}
}

func contactResponse(contact *models.Contact) dto.ContactResponse {
	return dto.ContactResponse{
		ID:          contact.ID,
		WorkspaceID: contact.WorkspaceID,
		Name:        contact.Name,
		Email:       contact.Email,
		Phone:       contact.Phone,
		CompanyName: contact.CompanyName,
		CreatorID:   contact.CreatorID,
		OwnerID:     contact.OwnerID,
		CreatedAt:   contact.CreatedAt,
		UpdatedAt:   contact.UpdatedAt,
	}
}

func (h *ContactHandler) Create(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	var req dto.ContactRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	contact, err := h.contactService.Create(context.Background(), principal, workspaceID, services.ContactInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		writeServiceError(c, err, "workspace not found", "failed to create contact")
		return
	}

	_ = c.JSON(201, contactResponse(contact))
}

func (h *ContactHandler) List(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	contacts, err := h.contactService.List(context.Background(), principal, workspaceID)
	if err != nil {
		writeServiceError(c, err, "workspace not found", "failed to get contacts")
		return
	}

	response := make([]dto.ContactResponse, len(contacts))
	for i := range contacts {
		response[i] = contactResponse(&contacts[i])
	}

	_ = c.JSON(200, response)
}

func (h *ContactHandler) Get(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	contactID, err := uuid.Parse(c.Param("contactId"))
	if err != nil {
		c.BadRequest("invalid contact id")
		return
	}

	contact, err := h.contactService.GetByID(context.Background(), principal, workspaceID, contactID)
	if err != nil {
		writeServiceError(c, err, "contact not found", "failed to get contact")
		return
	}

	_ = c.JSON(200, contactResponse(contact))
}

func (h *ContactHandler) Update(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	contactID, err := uuid.Parse(c.Param("contactId"))
	if err != nil {
		c.BadRequest("invalid contact id")
		return
	}

	var req dto.ContactRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	contact, err := h.contactService.Update(context.Background(), principal, workspaceID, contactID, services.ContactInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		writeServiceError(c, err, "contact not found", "failed to update contact")
		return
	}

	_ = c.JSON(200, contactResponse(contact))
}

func (h *ContactHandler) Delete(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	contactID, err := uuid.Parse(c.Param("contactId"))
	if err != nil {
		c.BadRequest("invalid contact id")
		return
	}

	if err := h.contactService.SoftDelete(context.Background(), principal, workspaceID, contactID); err != nil {
		writeServiceError(c, err, "contact not found", "failed to delete contact")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "contact deleted"})
}

func (h *ContactHandler) Restore(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	contactID, err := uuid.Parse(c.Param("contactId"))
	if err != nil {
		c.BadRequest("invalid contact id")
		return
	}

	contact, err := h.contactService.Restore(context.Background(), principal, workspaceID, contactID)
	if err != nil {
		writeServiceError(c, err, "contact not found", "failed to restore contact")
		return
	}

	_ = c.JSON(200, contactResponse(contact))
}
