package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/infyemailer-backoffice/internal/api_gateway/service"
	"github.com/infyemailer-backoffice/internal/domain/credit"
)

// CreditHandler handles HTTP requests for the credit ledger
type CreditHandler struct {
	service service.CreditService
	logger  *slog.Logger
}

// NewCreditHandler creates a new credit handler
func NewCreditHandler(logger *slog.Logger, creditService service.CreditService) *CreditHandler {
	return &CreditHandler{
		service: creditService,
		logger:  logger,
	}
}

// Register mounts the ledger routes under /credits
func (h *CreditHandler) Register(rg *gin.RouterGroup) {
	credits := rg.Group("/credits")
	{
		credits.GET("/system", h.GetSystem)
		credits.GET("/system/history", h.SystemHistory)
		credits.POST("/system/:op", h.ChangeSystem)

		credits.GET("/clients/:id", h.GetClient)
		credits.GET("/clients/:id/history", h.ClientHistory)
		credits.POST("/clients/:id/:op", h.ChangeClient)
	}
}

// GetSystem returns the system balance
func (h *CreditHandler) GetSystem(c *gin.Context) {
	RespondOK(c, mapSystemToResponse(h.service.SystemBalance(c.Request.Context())))
}

// ChangeSystem applies add, deduct or set to the system balance
func (h *CreditHandler) ChangeSystem(c *gin.Context) {
	op, req, ok := h.bindChange(c)
	if !ok {
		return
	}

	res, err := h.service.ChangeSystem(c.Request.Context(), op, *req.Amount, req.ActorID, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	RespondOK(c, res)
}

// SystemHistory returns system entries newest first
func (h *CreditHandler) SystemHistory(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	entries := h.service.SystemHistory(c.Request.Context(), filter)
	RespondList(c, entries, len(entries))
}

// GetClient returns a client's balance and totals
func (h *CreditHandler) GetClient(c *gin.Context) {
	clientID, ok := paramID(c, h.logger, "id")
	if !ok {
		return
	}

	client, err := h.service.ClientBalance(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	RespondOK(c, mapClientToResponse(client))
}

// ChangeClient applies add, deduct, set or allocate to a client balance
func (h *CreditHandler) ChangeClient(c *gin.Context) {
	clientID, ok := paramID(c, h.logger, "id")
	if !ok {
		return
	}
	op, req, ok := h.bindChange(c)
	if !ok {
		return
	}

	res, err := h.service.ChangeClient(c.Request.Context(), clientID, op, *req.Amount, req.ActorID, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	RespondOK(c, res)
}

// ClientHistory returns one client's entries newest first
func (h *CreditHandler) ClientHistory(c *gin.Context) {
	clientID, ok := paramID(c, h.logger, "id")
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	entries, err := h.service.ClientHistory(c.Request.Context(), clientID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	RespondList(c, entries, len(entries))
}

func (h *CreditHandler) bindChange(c *gin.Context) (credit.TransactionType, CreditChangeRequest, bool) {
	var req CreditChangeRequest
	op := credit.TransactionType(c.Param("op"))
	if !op.Valid() {
		h.logger.Error("Invalid credit operation", "op", op)
		RespondBadRequest(c, "Invalid credit operation")
		return op, req, false
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "op", op, "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return op, req, false
	}
	return op, req, true
}

func (h *CreditHandler) bindFilter(c *gin.Context) (credit.HistoryFilter, bool) {
	var query HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Error("Invalid history parameters", "error", err)
		RespondBadRequest(c, "Invalid history parameters")
		return credit.HistoryFilter{}, false
	}

	filter, err := query.Filter()
	if err != nil {
		h.logger.Error("Invalid history parameters", "error", err)
		RespondBadRequest(c, "Invalid history parameters: "+err.Error())
		return credit.HistoryFilter{}, false
	}
	return filter, true
}
