// Package entity defines the record kinds kept by the back office store.
//
// Every kind carries an int64 identifier assigned by its collection, a creation
// timestamp and kind-specific fields. Optional timestamps are pointers so that a
// missing value survives a snapshot round trip as null.
package entity

import (
	"errors"
	"fmt"
)

// Kind names a record kind. It doubles as the snapshot name of the kind's collection.
type Kind string

const (
	KindClient      Kind = "clients"
	KindContact     Kind = "contacts"
	KindList        Kind = "lists"
	KindContactList Kind = "contact_lists"
	KindCampaign    Kind = "campaigns"
	KindTemplate    Kind = "templates"
	KindDomain      Kind = "domains"
	KindEmail       Kind = "emails"
)

// Kinds lists every record kind in the order collections are opened.
var Kinds = []Kind{
	KindClient, KindContact, KindList, KindContactList,
	KindCampaign, KindTemplate, KindDomain, KindEmail,
}

// ErrNotFound is matched by every ErrRecordNotFound.
var ErrNotFound = errors.New("record not found")

// ErrRecordNotFound is returned when a record of a kind does not exist
type ErrRecordNotFound struct {
	Kind Kind
	ID   int64
}

func (e ErrRecordNotFound) Error() string {
	return fmt.Sprintf("%s record %d not found", e.Kind, e.ID)
}

// Is matches ErrNotFound, or another ErrRecordNotFound whose non-zero fields agree.
func (e ErrRecordNotFound) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	return (t.Kind == "" || t.Kind == e.Kind) && (t.ID == 0 || t.ID == e.ID)
}
