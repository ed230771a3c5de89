package handler

import (
	"time"

	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/infyemailer-backoffice/internal/domain/entity"
)

// CreditChangeRequest represents a request to add, deduct, set or allocate credits.
// Amount is validated by the ledger so that zero can be set.
type CreditChangeRequest struct {
	Amount  *int64 `json:"amount" binding:"required"`
	Reason  string `json:"reason"`
	ActorID int64  `json:"actor_id" binding:"min=0"`
}

// AddMemberRequest represents a request to add a contact to a list
type AddMemberRequest struct {
	ContactID int64 `json:"contact_id" binding:"required,gt=0"`
}

// HistoryQuery represents the filters accepted by history endpoints
type HistoryQuery struct {
	From  string `form:"from"`
	To    string `form:"to"`
	Type  string `form:"type"`
	Limit int    `form:"limit,default=0" binding:"min=0"`
}

// Filter converts the query into a ledger history filter
func (q HistoryQuery) Filter() (credit.HistoryFilter, error) {
	var f credit.HistoryFilter
	if q.From != "" {
		from, err := time.Parse(time.RFC3339, q.From)
		if err != nil {
			return f, err
		}
		f.From = &from
	}
	if q.To != "" {
		to, err := time.Parse(time.RFC3339, q.To)
		if err != nil {
			return f, err
		}
		f.To = &to
	}
	if q.Type != "" {
		f.Type = credit.TransactionType(q.Type)
		if !f.Type.Valid() {
			return f, errInvalidType(q.Type)
		}
	}
	f.Limit = q.Limit
	return f, nil
}

// SystemBalanceResponse represents the system credits in API responses
type SystemBalanceResponse struct {
	Balance     int64  `json:"balance"`
	UpdatedAt   string `json:"updated_at"`
	LastReason  string `json:"last_reason,omitempty"`
	LastActorID int64  `json:"last_actor_id,omitempty"`
}

// ClientBalanceResponse represents a client's credits in API responses
type ClientBalanceResponse struct {
	ClientID           int64  `json:"client_id"`
	Name               string `json:"name"`
	Credits            int64  `json:"credits"`
	CreditsPurchased   int64  `json:"credits_purchased"`
	CreditsUsed        int64  `json:"credits_used"`
	CreditsLastUpdated string `json:"credits_last_updated,omitempty"`
}

func mapSystemToResponse(s credit.SystemCredits) SystemBalanceResponse {
	return SystemBalanceResponse{
		Balance:     s.Balance,
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
		LastReason:  s.LastReason,
		LastActorID: s.LastActorID,
	}
}

func mapClientToResponse(c entity.Client) ClientBalanceResponse {
	response := ClientBalanceResponse{
		ClientID:         c.ID,
		Name:             c.Name,
		Credits:          c.Credits,
		CreditsPurchased: c.CreditsPurchased,
		CreditsUsed:      c.CreditsUsed,
	}
	if c.CreditsLastUpdated != nil {
		response.CreditsLastUpdated = c.CreditsLastUpdated.Format(time.RFC3339)
	}
	return response
}
