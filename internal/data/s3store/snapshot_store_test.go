package s3store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/infyemailer-backoffice/internal/data/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObjectAPI struct {
	mock.Mock
}

func (m *MockObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockObjectAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

var _ ObjectAPI = (*MockObjectAPI)(nil)

func TestSnapshotStore_Write(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()
	payload := []byte(`[{"id":1}]`)

	t.Run("puts object under prefixed key", func(t *testing.T) {
		api := new(MockObjectAPI)
		store := NewSnapshotStore(logger, api, "backoffice", "snapshots/")

		api.On("PutObject", ctx, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			body, _ := io.ReadAll(in.Body)
			return aws.ToString(in.Bucket) == "backoffice" &&
				aws.ToString(in.Key) == "snapshots/clients.json" &&
				aws.ToString(in.ContentType) == "application/json" &&
				string(body) == string(payload)
		})).Return(&s3.PutObjectOutput{}, nil).Once()

		require.NoError(t, store.Write(ctx, "clients", payload))
		api.AssertExpectations(t)
	})

	t.Run("wraps client errors", func(t *testing.T) {
		api := new(MockObjectAPI)
		store := NewSnapshotStore(logger, api, "backoffice", "")
		putErr := errors.New("access denied")
		api.On("PutObject", ctx, mock.Anything).Return(nil, putErr).Once()

		err := store.Write(ctx, "clients", payload)
		assert.ErrorIs(t, err, putErr)
		api.AssertExpectations(t)
	})
}

func TestSnapshotStore_Read(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()

	t.Run("returns object body", func(t *testing.T) {
		api := new(MockObjectAPI)
		store := NewSnapshotStore(logger, api, "backoffice", "snapshots/")
		api.On("GetObject", ctx, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return aws.ToString(in.Key) == "snapshots/lists.json"
		})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(`[]`))}, nil).Once()

		data, err := store.Read(ctx, "lists")
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(data))
		api.AssertExpectations(t)
	})

	t.Run("missing key maps to not found", func(t *testing.T) {
		api := new(MockObjectAPI)
		store := NewSnapshotStore(logger, api, "backoffice", "")
		api.On("GetObject", ctx, mock.Anything).Return(nil, &types.NoSuchKey{}).Once()

		_, err := store.Read(ctx, "lists")
		assert.ErrorIs(t, err, snapshot.ErrNotFound)
	})

	t.Run("other errors surface", func(t *testing.T) {
		api := new(MockObjectAPI)
		store := NewSnapshotStore(logger, api, "backoffice", "")
		getErr := errors.New("timeout")
		api.On("GetObject", ctx, mock.Anything).Return(nil, getErr).Once()

		_, err := store.Read(ctx, "lists")
		assert.ErrorIs(t, err, getErr)
		assert.NotErrorIs(t, err, snapshot.ErrNotFound)
	})
}
