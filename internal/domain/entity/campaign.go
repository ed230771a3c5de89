package entity

import (
	"time"

	"github.com/infyemailer-backoffice/internal/platform/codec"
)

// Campaign status values
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusSending   = "sending"
	CampaignStatusSent      = "sent"
)

// CampaignStats are the delivery counters reported for a campaign.
type CampaignStats struct {
	Recipients int64 `json:"recipients"`
	Delivered  int64 `json:"delivered"`
	Opened     int64 `json:"opened"`
	Clicked    int64 `json:"clicked"`
	Bounced    int64 `json:"bounced"`
}

type Campaign struct {
	ID          int64         `json:"id"`
	ClientID    int64         `json:"client_id,omitempty"`
	Name        string        `json:"name"`
	Subject     string        `json:"subject"`
	FromName    string        `json:"from_name,omitempty"`
	FromEmail   string        `json:"from_email,omitempty"`
	TemplateID  int64         `json:"template_id,omitempty"`
	ListID      int64         `json:"list_id,omitempty"`
	DomainID    int64         `json:"domain_id,omitempty"`
	Status      string        `json:"status"`
	Stats       CampaignStats `json:"stats"`
	ScheduledAt *time.Time    `json:"scheduled_at"`
	SentAt      *time.Time    `json:"sent_at"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at"`
}

func (c Campaign) GetID() int64 { return c.ID }

func (c Campaign) WithIdentity(id int64, now time.Time) Campaign {
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = &now
	if c.Status == "" {
		c.Status = CampaignStatusDraft
	}
	return c
}

func (c Campaign) Touched(now time.Time) Campaign {
	c.UpdatedAt = &now
	return c
}

func (c Campaign) Rehydrate() Campaign {
	c.CreatedAt = codec.Time(c.CreatedAt)
	c.UpdatedAt = codec.TimePtr(c.UpdatedAt)
	c.ScheduledAt = codec.TimePtr(c.ScheduledAt)
	c.SentAt = codec.TimePtr(c.SentAt)
	return c
}

type CampaignPatch struct {
	Name        *string        `json:"name"`
	Subject     *string        `json:"subject"`
	FromName    *string        `json:"from_name"`
	FromEmail   *string        `json:"from_email"`
	TemplateID  *int64         `json:"template_id"`
	ListID      *int64         `json:"list_id"`
	DomainID    *int64         `json:"domain_id"`
	Status      *string        `json:"status"`
	Stats       *CampaignStats `json:"stats"`
	ScheduledAt *time.Time     `json:"scheduled_at"`
	SentAt      *time.Time     `json:"sent_at"`
}

func (p CampaignPatch) Apply(c Campaign) Campaign {
	setIf(&c.Name, p.Name)
	setIf(&c.Subject, p.Subject)
	setIf(&c.FromName, p.FromName)
	setIf(&c.FromEmail, p.FromEmail)
	setIf(&c.TemplateID, p.TemplateID)
	setIf(&c.ListID, p.ListID)
	setIf(&c.DomainID, p.DomainID)
	setIf(&c.Status, p.Status)
	setIf(&c.Stats, p.Stats)
	if p.ScheduledAt != nil {
		c.ScheduledAt = codec.TimePtr(p.ScheduledAt)
	}
	if p.SentAt != nil {
		c.SentAt = codec.TimePtr(p.SentAt)
	}
	return c
}

// Template is reusable email content.
type Template struct {
	ID         int64      `json:"id"`
	ClientID   int64      `json:"client_id,omitempty"`
	Name       string     `json:"name"`
	Subject    string     `json:"subject"`
	Category   string     `json:"category,omitempty"`
	Content    string     `json:"content"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

func (t Template) GetID() int64 { return t.ID }

func (t Template) WithIdentity(id int64, now time.Time) Template {
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = &now
	if t.Category == "" {
		t.Category = "general"
	}
	return t
}

func (t Template) Touched(now time.Time) Template {
	t.UpdatedAt = &now
	return t
}

func (t Template) Rehydrate() Template {
	t.CreatedAt = codec.Time(t.CreatedAt)
	t.UpdatedAt = codec.TimePtr(t.UpdatedAt)
	t.LastUsedAt = codec.TimePtr(t.LastUsedAt)
	return t
}

type TemplatePatch struct {
	Name       *string    `json:"name"`
	Subject    *string    `json:"subject"`
	Category   *string    `json:"category"`
	Content    *string    `json:"content"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

func (p TemplatePatch) Apply(t Template) Template {
	setIf(&t.Name, p.Name)
	setIf(&t.Subject, p.Subject)
	setIf(&t.Category, p.Category)
	setIf(&t.Content, p.Content)
	if p.LastUsedAt != nil {
		t.LastUsedAt = codec.TimePtr(p.LastUsedAt)
	}
	return t
}

// Email status values
const (
	EmailStatusQueued    = "queued"
	EmailStatusSent      = "sent"
	EmailStatusDelivered = "delivered"
	EmailStatusBounced   = "bounced"
)

// Email is a single message addressed to one contact, usually on behalf of a campaign.
type Email struct {
	ID         int64      `json:"id"`
	CampaignID int64      `json:"campaign_id,omitempty"`
	ContactID  int64      `json:"contact_id,omitempty"`
	To         string     `json:"to"`
	Subject    string     `json:"subject"`
	Status     string     `json:"status"`
	SentAt     *time.Time `json:"sent_at"`
	OpenedAt   *time.Time `json:"opened_at"`
	ClickedAt  *time.Time `json:"clicked_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

func (e Email) GetID() int64 { return e.ID }

func (e Email) WithIdentity(id int64, now time.Time) Email {
	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = &now
	if e.Status == "" {
		e.Status = EmailStatusQueued
	}
	return e
}

func (e Email) Touched(now time.Time) Email {
	e.UpdatedAt = &now
	return e
}

func (e Email) Rehydrate() Email {
	e.CreatedAt = codec.Time(e.CreatedAt)
	e.UpdatedAt = codec.TimePtr(e.UpdatedAt)
	e.SentAt = codec.TimePtr(e.SentAt)
	e.OpenedAt = codec.TimePtr(e.OpenedAt)
	e.ClickedAt = codec.TimePtr(e.ClickedAt)
	return e
}

type EmailPatch struct {
	Subject   *string    `json:"subject"`
	Status    *string    `json:"status"`
	SentAt    *time.Time `json:"sent_at"`
	OpenedAt  *time.Time `json:"opened_at"`
	ClickedAt *time.Time `json:"clicked_at"`
}

func (p EmailPatch) Apply(e Email) Email {
	setIf(&e.Subject, p.Subject)
	setIf(&e.Status, p.Status)
	if p.SentAt != nil {
		e.SentAt = codec.TimePtr(p.SentAt)
	}
	if p.OpenedAt != nil {
		e.OpenedAt = codec.TimePtr(p.OpenedAt)
	}
	if p.ClickedAt != nil {
		e.ClickedAt = codec.TimePtr(p.ClickedAt)
	}
	return e
}
