package entity

import (
	"time"

	"github.com/infyemailer-backoffice/internal/platform/codec"
)

// Contact status values
const (
	ContactStatusActive       = "active"
	ContactStatusUnsubscribed = "unsubscribed"
	ContactStatusBounced      = "bounced"
)

// Contact is a recipient address that can be placed on lists.
type Contact struct {
	ID          int64      `json:"id"`
	ClientID    int64      `json:"client_id,omitempty"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	Source      string     `json:"source,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	LastEngaged *time.Time `json:"last_engaged"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func (c Contact) GetID() int64 { return c.ID }

func (c Contact) WithIdentity(id int64, now time.Time) Contact {
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = &now
	if c.Status == "" {
		c.Status = ContactStatusActive
	}
	return c
}

func (c Contact) Touched(now time.Time) Contact {
	c.UpdatedAt = &now
	return c
}

func (c Contact) Rehydrate() Contact {
	c.CreatedAt = codec.Time(c.CreatedAt)
	c.UpdatedAt = codec.TimePtr(c.UpdatedAt)
	c.LastEngaged = codec.TimePtr(c.LastEngaged)
	return c
}

type ContactPatch struct {
	Name        *string    `json:"name"`
	Email       *string    `json:"email"`
	Status      *string    `json:"status"`
	Source      *string    `json:"source"`
	Tags        *[]string  `json:"tags"`
	LastEngaged *time.Time `json:"last_engaged"`
}

func (p ContactPatch) Apply(c Contact) Contact {
	setIf(&c.Name, p.Name)
	setIf(&c.Email, p.Email)
	setIf(&c.Status, p.Status)
	setIf(&c.Source, p.Source)
	setIf(&c.Tags, p.Tags)
	if p.LastEngaged != nil {
		c.LastEngaged = codec.TimePtr(p.LastEngaged)
	}
	return c
}

// List groups contacts for campaign targeting.
type List struct {
	ID          int64      `json:"id"`
	ClientID    int64      `json:"client_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func (l List) GetID() int64 { return l.ID }

func (l List) WithIdentity(id int64, now time.Time) List {
	l.ID = id
	l.CreatedAt = now
	l.UpdatedAt = &now
	return l
}

func (l List) Touched(now time.Time) List {
	l.UpdatedAt = &now
	return l
}

func (l List) Rehydrate() List {
	l.CreatedAt = codec.Time(l.CreatedAt)
	l.UpdatedAt = codec.TimePtr(l.UpdatedAt)
	return l
}

type ListPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (p ListPatch) Apply(l List) List {
	setIf(&l.Name, p.Name)
	setIf(&l.Description, p.Description)
	return l
}

// ContactList is the membership relation between a contact and a list.
// It references both sides by identifier and is removed when either side is deleted.
type ContactList struct {
	ID        int64     `json:"id"`
	ContactID int64     `json:"contact_id"`
	ListID    int64     `json:"list_id"`
	AddedAt   time.Time `json:"added_at"`
}

func (r ContactList) GetID() int64 { return r.ID }

func (r ContactList) WithIdentity(id int64, now time.Time) ContactList {
	r.ID = id
	r.AddedAt = now
	return r
}

// Touched is a no-op; relations carry no update timestamp.
func (r ContactList) Touched(time.Time) ContactList { return r }

func (r ContactList) Rehydrate() ContactList {
	r.AddedAt = codec.Time(r.AddedAt)
	return r
}
