package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/infyemailer-backoffice/internal/domain/entity"
	"github.com/infyemailer-backoffice/internal/ledger"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEntityService[T any, P any] struct {
	mock.Mock
}

func (m *MockEntityService[T, P]) Create(ctx context.Context, rec T) (T, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(T), args.Error(1)
}

func (m *MockEntityService[T, P]) List(ctx context.Context) []T {
	args := m.Called(ctx)
	return args.Get(0).([]T)
}

func (m *MockEntityService[T, P]) Get(ctx context.Context, id int64) (T, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(T), args.Error(1)
}

func (m *MockEntityService[T, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(T), args.Error(1)
}

func (m *MockEntityService[T, P]) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) Contacts(ctx context.Context, listID int64) ([]entity.Contact, error) {
	args := m.Called(ctx, listID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Contact), args.Error(1)
}

func (m *MockMembershipService) AddContact(ctx context.Context, listID, contactID int64) (entity.ContactList, error) {
	args := m.Called(ctx, listID, contactID)
	return args.Get(0).(entity.ContactList), args.Error(1)
}

func (m *MockMembershipService) RemoveContact(ctx context.Context, listID, contactID int64) error {
	args := m.Called(ctx, listID, contactID)
	return args.Error(0)
}

type MockCreditService struct {
	mock.Mock
}

func (m *MockCreditService) SystemBalance(ctx context.Context) credit.SystemCredits {
	args := m.Called(ctx)
	return args.Get(0).(credit.SystemCredits)
}

func (m *MockCreditService) ChangeSystem(ctx context.Context, op credit.TransactionType, amount, actorID int64, reason string) (*ledger.Result, error) {
	args := m.Called(ctx, op, amount, actorID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Result), args.Error(1)
}

func (m *MockCreditService) SystemHistory(ctx context.Context, filter credit.HistoryFilter) []credit.HistoryEntry {
	args := m.Called(ctx, filter)
	return args.Get(0).([]credit.HistoryEntry)
}

func (m *MockCreditService) ClientBalance(ctx context.Context, clientID int64) (entity.Client, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).(entity.Client), args.Error(1)
}

func (m *MockCreditService) ChangeClient(ctx context.Context, clientID int64, op credit.TransactionType, amount, actorID int64, reason string) (*ledger.Result, error) {
	args := m.Called(ctx, clientID, op, amount, actorID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Result), args.Error(1)
}

func (m *MockCreditService) ClientHistory(ctx context.Context, clientID int64, filter credit.HistoryFilter) ([]credit.HistoryEntry, error) {
	args := m.Called(ctx, clientID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]credit.HistoryEntry), args.Error(1)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.Default()
	return r
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// decodeData unmarshals the response envelope and decodes its data field into out.
func decodeData(t *testing.T, body []byte, out interface{}) Response {
	t.Helper()
	var topLevelResponse Response
	require.NoError(t, json.Unmarshal(body, &topLevelResponse), "Failed to unmarshal top-level response")
	if out != nil {
		require.NotNil(t, topLevelResponse.Data, "'data' field should not be nil")
		dataBytes, err := json.Marshal(topLevelResponse.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(dataBytes, out))
	}
	return topLevelResponse
}
