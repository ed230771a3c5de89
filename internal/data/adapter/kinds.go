package adapter

import (
	"log/slog"

	"github.com/infyemailer-backoffice/internal/data/snapshot"
	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/infyemailer-backoffice/internal/domain/entity"
)

func NewClientAdapter(logger *slog.Logger, store snapshot.Store) *Adapter[entity.Client] {
	return New[entity.Client](logger, store, string(entity.KindClient))
}

func NewContactAdapter(logger *slog.Logger, store snapshot.Store) *Adapter[entity.Contact] {
	return New[entity.Contact](logger, store, string(entity.KindContact))
}

func NewListAdapter(logger *slog.Logger, store snapshot.Store) *Adapter[entity.List] {
	return New[entity.List](logger, store, string(entity.KindList))
}

func NewContactListAdapter(logger *slog.Logger, store snapshot.Store) *Adapter[entity.ContactList] {
	return New[entity.ContactList](logger, store, string(entity.KindContactList))
}

func NewCampaignAdapter(logger *slog.Logger, store snapshot.Store) *Adapter[entity.Campaign] {
	return New[entity.Campaign](logger, store, string(entity.KindCampaign))
}

func NewTemplateAdapter(logger *slog.Logger, store snapshot.Store) *Adapter[entity.Template] {
	return New[entity.Template](logger, store, string(entity.KindTemplate))
}

func NewDomainAdapter(logger *slog.Logger, store snapshot.Store) *Adapter[entity.Domain] {
	return New[entity.Domain](logger, store, string(entity.KindDomain))
}

func NewEmailAdapter(logger *slog.Logger, store snapshot.Store) *Adapter[entity.Email] {
	return New[entity.Email](logger, store, string(entity.KindEmail))
}

func NewSystemCreditsAdapter(logger *slog.Logger, store snapshot.Store) *Adapter[credit.SystemCredits] {
	return New[credit.SystemCredits](logger, store, credit.SystemCreditsSnapshot)
}

func NewSystemHistoryAdapter(logger *slog.Logger, store snapshot.Store) *Adapter[credit.HistoryEntry] {
	return New[credit.HistoryEntry](logger, store, credit.SystemHistorySnapshot)
}

func NewClientHistoryAdapter(logger *slog.Logger, store snapshot.Store) *Adapter[credit.HistoryEntry] {
	return New[credit.HistoryEntry](logger, store, credit.ClientHistorySnapshot)
}
