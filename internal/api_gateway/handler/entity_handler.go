package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/infyemailer-backoffice/internal/api_gateway/service"
	"github.com/infyemailer-backoffice/internal/domain/entity"
)

// EntityHandler handles HTTP requests for one record kind. T is the record
// type accepted on create and P the patch accepted on update.
type EntityHandler[T any, P any] struct {
	kind    entity.Kind
	service service.EntityService[T, P]
	logger  *slog.Logger
}

// NewEntityHandler creates a new handler for records of kind
func NewEntityHandler[T any, P any](logger *slog.Logger, kind entity.Kind, entityService service.EntityService[T, P]) *EntityHandler[T, P] {
	return &EntityHandler[T, P]{
		kind:    kind,
		service: entityService,
		logger:  logger.With("kind", kind),
	}
}

// Register mounts the CRUD routes under /<kind>
func (h *EntityHandler[T, P]) Register(rg *gin.RouterGroup) {
	group := rg.Group("/" + string(h.kind))
	{
		group.POST("", h.Create)
		group.GET("", h.List)
		group.GET("/:id", h.GetByID)
		group.PATCH("/:id", h.Update)
		group.DELETE("/:id", h.Delete)
	}
}

// Create stores a new record; identifiers and timestamps in the body are ignored
func (h *EntityHandler[T, P]) Create(c *gin.Context) {
	var rec T
	if err := c.ShouldBindJSON(&rec); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.service.Create(c.Request.Context(), rec)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	RespondCreated(c, created)
}

// List returns every record of the kind
func (h *EntityHandler[T, P]) List(c *gin.Context) {
	records := h.service.List(c.Request.Context())
	RespondList(c, records, len(records))
}

// GetByID returns one record, 404 if it doesn't exist
func (h *EntityHandler[T, P]) GetByID(c *gin.Context) {
	id, ok := paramID(c, h.logger, "id")
	if !ok {
		return
	}

	rec, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	RespondOK(c, rec)
}

// Update merges the fields present in the body over the stored record
func (h *EntityHandler[T, P]) Update(c *gin.Context) {
	id, ok := paramID(c, h.logger, "id")
	if !ok {
		return
	}

	var patch P
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Error("Invalid request body", "id", id, "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	RespondOK(c, updated)
}

// Delete removes a record and its dependent relations
func (h *EntityHandler[T, P]) Delete(c *gin.Context) {
	id, ok := paramID(c, h.logger, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}
