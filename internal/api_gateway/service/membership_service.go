package service

import (
	"context"

	"github.com/infyemailer-backoffice/internal/domain/entity"
	"github.com/infyemailer-backoffice/internal/store"
)

// MembershipServiceImpl implements MembershipService over the store
type MembershipServiceImpl struct {
	storage *store.Storage
}

// NewMembershipService creates a new list membership service
func NewMembershipService(storage *store.Storage) MembershipService {
	return &MembershipServiceImpl{storage: storage}
}

func (s *MembershipServiceImpl) Contacts(ctx context.Context, listID int64) ([]entity.Contact, error) {
	return s.storage.ContactsInList(listID)
}

func (s *MembershipServiceImpl) AddContact(ctx context.Context, listID, contactID int64) (entity.ContactList, error) {
	return s.storage.AddContactToList(ctx, listID, contactID)
}

func (s *MembershipServiceImpl) RemoveContact(ctx context.Context, listID, contactID int64) error {
	return s.storage.RemoveContactFromList(ctx, listID, contactID)
}
