package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/infyemailer-backoffice/internal/domain/credit"
)

const (
	// HistoryCollectionName is the name of the credit history collection in MongoDB
	HistoryCollectionName = "credit_history"

	// SinkMongo is the sink label used for metrics and logs.
	SinkMongo = "mongo"
)

// HistoryMirror keeps a queryable copy of every ledger event in MongoDB. The
// snapshot store stays the source of truth; the mirror may lag or miss events.
type HistoryMirror struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewHistoryMirror(logger *slog.Logger, db *mongo.Database) *HistoryMirror {
	return &HistoryMirror{
		db:     db,
		logger: logger.With("sink", SinkMongo),
	}
}

func (m *HistoryMirror) Name() string { return SinkMongo }

// EnsureIndexes creates the unique entry index and the per-client time index.
func (m *HistoryMirror) EnsureIndexes(ctx context.Context) error {
	collection := m.db.Collection(HistoryCollectionName)

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "entry.scope", Value: 1}, {Key: "entry.entry_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("entry_identity"),
		},
		{
			Keys:    bson.D{{Key: "entry.client_id", Value: 1}, {Key: "entry.created_at", Value: -1}},
			Options: options.Index().SetName("client_history"),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, models); err != nil {
		m.logger.Error("Failed to create credit history indexes", "error", err)
		return fmt.Errorf("failed to create credit history indexes: %w", err)
	}
	return nil
}

// Deliver upserts the event by its entry identity, so redelivery is harmless.
func (m *HistoryMirror) Deliver(ctx context.Context, event *credit.LedgerEvent) error {
	collection := m.db.Collection(HistoryCollectionName)

	filter := bson.M{"entry.scope": event.Entry.Scope, "entry.entry_id": event.Entry.ID}
	_, err := collection.ReplaceOne(ctx, filter, event, options.Replace().SetUpsert(true))
	if err != nil {
		m.logger.Error("Failed to mirror ledger event",
			"event_id", event.EventID.String(),
			"scope", event.Entry.Scope,
			"entry_id", event.Entry.ID,
			"error", err)
		return fmt.Errorf("failed to mirror ledger event %s: %w", event.EventID, err)
	}
	return nil
}

// History returns mirrored entries of one scope matching filter, newest first.
// clientID is ignored for the system scope.
func (m *HistoryMirror) History(ctx context.Context, scope credit.Scope, clientID int64, f credit.HistoryFilter) ([]credit.HistoryEntry, error) {
	collection := m.db.Collection(HistoryCollectionName)

	opts := options.Find().
		SetSort(bson.D{{Key: "entry.created_at", Value: -1}, {Key: "entry.entry_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cursor, err := collection.Find(ctx, historyFilter(scope, clientID, f), opts)
	if err != nil {
		m.logger.Error("Failed to query credit history", "scope", scope, "client_id", clientID, "error", err)
		return nil, fmt.Errorf("failed to query credit history: %w", err)
	}
	defer cursor.Close(ctx)

	var events []credit.LedgerEvent
	if err := cursor.All(ctx, &events); err != nil {
		m.logger.Error("Failed to decode credit history", "scope", scope, "client_id", clientID, "error", err)
		return nil, fmt.Errorf("failed to decode credit history: %w", err)
	}

	entries := make([]credit.HistoryEntry, 0, len(events))
	for _, ev := range events {
		entries = append(entries, ev.Entry.Rehydrate())
	}
	return entries, nil
}

func historyFilter(scope credit.Scope, clientID int64, f credit.HistoryFilter) bson.M {
	filter := bson.M{"entry.scope": scope}
	if scope == credit.ScopeClient {
		filter["entry.client_id"] = clientID
	}
	if f.Type != "" {
		filter["entry.type"] = f.Type
	}

	created := bson.M{}
	if f.From != nil {
		created["$gte"] = *f.From
	}
	if f.To != nil {
		created["$lte"] = *f.To
	}
	if len(created) > 0 {
		filter["entry.created_at"] = created
	}
	return filter
}
