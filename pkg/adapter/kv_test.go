package adapter_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sproutsage/pkg/adapter"
	"github.com/m-mizutani/sproutsage/pkg/interfaces"
	"github.com/m-mizutani/sproutsage/pkg/model"
)

// testKV runs the contract every backend must satisfy
func testKV(t *testing.T, kv interfaces.KV) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := kv.Get(ctx, "missing")
		gt.NoError(t, err)
		gt.False(t, ok)
		gt.Equal(t, v, "")
	})

	t.Run("set and get", func(t *testing.T) {
		gt.NoError(t, kv.Set(ctx, "plants", `[{"id":"a"}]`))
		v, ok, err := kv.Get(ctx, "plants")
		gt.NoError(t, err)
		gt.True(t, ok)
		gt.Equal(t, v, `[{"id":"a"}]`)
	})

	t.Run("overwrite", func(t *testing.T) {
		gt.NoError(t, kv.Set(ctx, "profile", `{"name":"a"}`))
		gt.NoError(t, kv.Set(ctx, "profile", `{"name":"b"}`))
		v, ok, err := kv.Get(ctx, "profile")
		gt.NoError(t, err)
		gt.True(t, ok)
		gt.Equal(t, v, `{"name":"b"}`)
	})

	t.Run("remove", func(t *testing.T) {
		gt.NoError(t, kv.Set(ctx, "image", "data"))
		gt.NoError(t, kv.Remove(ctx, "image"))
		_, ok, err := kv.Get(ctx, "image")
		gt.NoError(t, err)
		gt.False(t, ok)

		// removing again is not an error
		gt.NoError(t, kv.Remove(ctx, "image"))
	})
}

func TestMemoryKV(t *testing.T) {
	kv := adapter.NewMemoryKV()
	testKV(t, kv)

	gt.Number(t, kv.Len()).Greater(0)
	kv.Flush()
	gt.Equal(t, kv.Len(), 0)
}

func TestSQLiteKV(t *testing.T) {
	ctx := context.Background()
	kv, err := adapter.NewSQLiteKV(ctx, ":memory:")
	gt.NoError(t, err)
	defer kv.Close()

	testKV(t, kv)
}

func TestSQLiteKVPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sproutsage.db")

	kv, err := adapter.NewSQLiteKV(ctx, path)
	gt.NoError(t, err)
	gt.NoError(t, kv.Set(ctx, "sproutsage_user_profile", `{"name":"Rose"}`))
	gt.NoError(t, kv.Close())

	reopened, err := adapter.NewSQLiteKV(ctx, path)
	gt.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "sproutsage_user_profile")
	gt.NoError(t, err)
	gt.True(t, ok)
	gt.Equal(t, v, `{"name":"Rose"}`)
}

type mockStorage struct {
	data map[string][]byte
}

func newMockStorage() *mockStorage {
	return &mockStorage{data: make(map[string][]byte)}
}

type mockWriteCloser struct {
	*bytes.Buffer
	storage *mockStorage
	key     string
}

func (m *mockWriteCloser) Close() error {
	m.storage.data[m.key] = m.Buffer.Bytes()
	return nil
}

func (m *mockStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return &mockWriteCloser{Buffer: &bytes.Buffer{}, storage: m, key: key}, nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "data not found", goerr.V("key", key))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestObjectKV(t *testing.T) {
	storage := newMockStorage()
	kv := adapter.NewObjectKV(storage, "users/u1")
	testKV(t, kv)

	_, ok := storage.data["users/u1/plants.json"]
	gt.True(t, ok)
}

func TestObjectKVWithCloudStorage(t *testing.T) {
	bucket := os.Getenv("TEST_STORAGE_BUCKET")
	if bucket == "" {
		t.Skip("TEST_STORAGE_BUCKET is not set")
	}

	storage, err := adapter.NewStorage(context.Background(), bucket)
	gt.NoError(t, err)
	testKV(t, adapter.NewObjectKV(storage, "test/"+string(model.NewPlantID())))
}

func TestFirestoreKV(t *testing.T) {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	kv, err := adapter.NewFirestoreKV(context.Background(), projectID, databaseID, nil,
		adapter.WithFirestoreCollection("sproutsage_test_"+string(model.NewPlantID())))
	gt.NoError(t, err)
	defer kv.Close()

	testKV(t, kv)
}
