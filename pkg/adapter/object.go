package adapter

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/model"
)

// ObjectKV stores each key as one object under prefix
type ObjectKV struct {
	storage Storage
	prefix  string
}

// NewObjectKV creates a backend on top of an object storage
func NewObjectKV(storage Storage, prefix string) *ObjectKV {
	return &ObjectKV{storage: storage, prefix: prefix}
}

func (o *ObjectKV) objectKey(key string) string {
	return path.Join(o.prefix, key+".json")
}

func (o *ObjectKV) Get(ctx context.Context, key string) (string, bool, error) {
	reader, err := o.storage.Get(ctx, o.objectKey(key))
	if errors.Is(err, model.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to read object", goerr.V("key", key))
	}
	return string(data), true, nil
}

func (o *ObjectKV) Set(ctx context.Context, key, value string) error {
	writer, err := o.storage.Put(ctx, o.objectKey(key))
	if err != nil {
		return goerr.Wrap(err, "failed to create storage writer", goerr.V("key", key))
	}

	if _, err := io.WriteString(writer, value); err != nil {
		_ = writer.Close()
		return goerr.Wrap(err, "failed to write object", goerr.V("key", key))
	}
	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage writer", goerr.V("key", key))
	}
	return nil
}

func (o *ObjectKV) Remove(ctx context.Context, key string) error {
	return o.storage.Delete(ctx, o.objectKey(key))
}
