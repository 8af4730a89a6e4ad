package adapter

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultFirestoreCollection = "sproutsage_kv"

// firestoreEntry is the document layout of one key
type firestoreEntry struct {
	Value string `firestore:"value"`
}

// FirestoreKV stores each key as one document in a Firestore collection
type FirestoreKV struct {
	client     *firestore.Client
	collection string
}

type FirestoreOption func(*FirestoreKV)

// WithFirestoreCollection overrides the collection holding the documents
func WithFirestoreCollection(name string) FirestoreOption {
	return func(f *FirestoreKV) {
		f.collection = name
	}
}

// NewFirestoreKV connects to the Firestore database of projectID
func NewFirestoreKV(ctx context.Context, projectID, databaseID string, clientOpts []option.ClientOption, opts ...FirestoreOption) (*FirestoreKV, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	f := &FirestoreKV{
		client:     client,
		collection: defaultFirestoreCollection,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *FirestoreKV) Get(ctx context.Context, key string) (string, bool, error) {
	snap, err := f.client.Collection(f.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to get firestore document", goerr.V("key", key))
	}

	var entry firestoreEntry
	if err := snap.DataTo(&entry); err != nil {
		return "", false, goerr.Wrap(err, "failed to decode firestore document", goerr.V("key", key))
	}
	return entry.Value, true, nil
}

func (f *FirestoreKV) Set(ctx context.Context, key, value string) error {
	if _, err := f.client.Collection(f.collection).Doc(key).Set(ctx, firestoreEntry{Value: value}); err != nil {
		return goerr.Wrap(err, "failed to set firestore document", goerr.V("key", key))
	}
	return nil
}

func (f *FirestoreKV) Remove(ctx context.Context, key string) error {
	_, err := f.client.Collection(f.collection).Doc(key).Delete(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return goerr.Wrap(err, "failed to delete firestore document", goerr.V("key", key))
	}
	return nil
}

// Close releases the Firestore client
func (f *FirestoreKV) Close() error {
	if err := f.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close firestore client")
	}
	return nil
}
