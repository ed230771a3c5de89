package entity

import (
	"time"

	"github.com/infyemailer-backoffice/internal/platform/codec"
)

// Client status values
const (
	ClientStatusActive    = "active"
	ClientStatusSuspended = "suspended"
)

// Client is a tenant of the back office. Its credit fields are owned by the
// credit ledger and are never changed through a ClientPatch.
type Client struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Company            string     `json:"company,omitempty"`
	Plan               string     `json:"plan,omitempty"`
	Status             string     `json:"status"`
	Credits            int64      `json:"credits"`
	CreditsPurchased   int64      `json:"credits_purchased"`
	CreditsUsed        int64      `json:"credits_used"`
	CreditsLastUpdated *time.Time `json:"credits_last_updated"`
	LastLogin          *time.Time `json:"last_login"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at"`
}

func (c Client) GetID() int64 { return c.ID }

// WithIdentity assigns the identifier and creation time of a new client.
func (c Client) WithIdentity(id int64, now time.Time) Client {
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = &now
	if c.Status == "" {
		c.Status = ClientStatusActive
	}
	if c.Credits < 0 {
		c.Credits = 0
	}
	return c
}

func (c Client) Touched(now time.Time) Client {
	c.UpdatedAt = &now
	return c
}

func (c Client) Rehydrate() Client {
	c.CreatedAt = codec.Time(c.CreatedAt)
	c.UpdatedAt = codec.TimePtr(c.UpdatedAt)
	c.LastLogin = codec.TimePtr(c.LastLogin)
	c.CreditsLastUpdated = codec.TimePtr(c.CreditsLastUpdated)
	return c
}

// ClientPatch holds the client fields a caller may change. Nil fields are left untouched.
type ClientPatch struct {
	Name      *string    `json:"name"`
	Email     *string    `json:"email"`
	Company   *string    `json:"company"`
	Plan      *string    `json:"plan"`
	Status    *string    `json:"status"`
	LastLogin *time.Time `json:"last_login"`
}

func (p ClientPatch) Apply(c Client) Client {
	setIf(&c.Name, p.Name)
	setIf(&c.Email, p.Email)
	setIf(&c.Company, p.Company)
	setIf(&c.Plan, p.Plan)
	setIf(&c.Status, p.Status)
	if p.LastLogin != nil {
		c.LastLogin = codec.TimePtr(p.LastLogin)
	}
	return c
}

func setIf[V any](dst *V, src *V) {
	if src != nil {
		*dst = *src
	}
}
