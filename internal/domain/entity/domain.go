package entity

import (
	"time"

	"github.com/infyemailer-backoffice/internal/platform/codec"
)

// Domain status values
const (
	DomainStatusPending  = "pending"
	DomainStatusVerified = "verified"
	DomainStatusFailed   = "failed"
)

// Domain is a sending domain and its verification state.
type Domain struct {
	ID         int64      `json:"id"`
	ClientID   int64      `json:"client_id,omitempty"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Verified   bool       `json:"verified"`
	Default    bool       `json:"default"`
	DKIM       bool       `json:"dkim"`
	SPF        bool       `json:"spf"`
	DMARC      bool       `json:"dmarc"`
	VerifiedAt *time.Time `json:"verified_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

func (d Domain) GetID() int64 { return d.ID }

func (d Domain) WithIdentity(id int64, now time.Time) Domain {
	d.ID = id
	d.CreatedAt = now
	d.UpdatedAt = &now
	if d.Status == "" {
		d.Status = DomainStatusPending
	}
	if d.Verified && d.VerifiedAt == nil {
		d.VerifiedAt = &now
	}
	return d
}

func (d Domain) Touched(now time.Time) Domain {
	d.UpdatedAt = &now
	if d.Verified && d.VerifiedAt == nil {
		d.VerifiedAt = &now
	}
	return d
}

func (d Domain) Rehydrate() Domain {
	d.CreatedAt = codec.Time(d.CreatedAt)
	d.UpdatedAt = codec.TimePtr(d.UpdatedAt)
	d.VerifiedAt = codec.TimePtr(d.VerifiedAt)
	d.LastUsedAt = codec.TimePtr(d.LastUsedAt)
	return d
}

type DomainPatch struct {
	Name       *string    `json:"name"`
	Status     *string    `json:"status"`
	Verified   *bool      `json:"verified"`
	Default    *bool      `json:"default"`
	DKIM       *bool      `json:"dkim"`
	SPF        *bool      `json:"spf"`
	DMARC      *bool      `json:"dmarc"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

func (p DomainPatch) Apply(d Domain) Domain {
	setIf(&d.Name, p.Name)
	setIf(&d.Status, p.Status)
	setIf(&d.Verified, p.Verified)
	setIf(&d.Default, p.Default)
	setIf(&d.DKIM, p.DKIM)
	setIf(&d.SPF, p.SPF)
	setIf(&d.DMARC, p.DMARC)
	if p.Verified != nil && *p.Verified {
		d.Status = DomainStatusVerified
	}
	if p.LastUsedAt != nil {
		d.LastUsedAt = codec.TimePtr(p.LastUsedAt)
	}
	return d
}
