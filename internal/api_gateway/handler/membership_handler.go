package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/infyemailer-backoffice/internal/api_gateway/service"
)

// MembershipHandler handles HTTP requests for list membership
type MembershipHandler struct {
	service service.MembershipService
	logger  *slog.Logger
}

// NewMembershipHandler creates a new list membership handler
func NewMembershipHandler(logger *slog.Logger, membershipService service.MembershipService) *MembershipHandler {
	return &MembershipHandler{
		service: membershipService,
		logger:  logger,
	}
}

// Register mounts the membership routes under /lists/:id/contacts
func (h *MembershipHandler) Register(rg *gin.RouterGroup) {
	group := rg.Group("/lists/:id/contacts")
	{
		group.GET("", h.List)
		group.POST("", h.Add)
		group.DELETE("/:contactId", h.Remove)
	}
}

// List returns the contacts on a list
func (h *MembershipHandler) List(c *gin.Context) {
	listID, ok := paramID(c, h.logger, "id")
	if !ok {
		return
	}

	contacts, err := h.service.Contacts(c.Request.Context(), listID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	RespondList(c, contacts, len(contacts))
}

// Add puts a contact on a list
func (h *MembershipHandler) Add(c *gin.Context) {
	listID, ok := paramID(c, h.logger, "id")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "list_id", listID, "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rel, err := h.service.AddContact(c.Request.Context(), listID, req.ContactID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	RespondCreated(c, rel)
}

// Remove takes a contact off a list
func (h *MembershipHandler) Remove(c *gin.Context) {
	listID, ok := paramID(c, h.logger, "id")
	if !ok {
		return
	}
	contactID, ok := paramID(c, h.logger, "contactId")
	if !ok {
		return
	}

	if err := h.service.RemoveContact(c.Request.Context(), listID, contactID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}
