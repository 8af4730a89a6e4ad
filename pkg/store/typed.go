package store

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/utils/logging"
)

// Load reads key and decodes it as JSON. A missing key, a read failure or a
// value that does not decode all yield def; decode failures are logged and
// never returned.
func Load[T any](ctx context.Context, s *Store, scope Scope, key string, def T) T {
	raw, ok, err := s.Get(ctx, scope, key)
	if err != nil {
		logging.From(ctx).Warn("storage read failed, using default", "error", err)
		return def
	}
	if !ok {
		return def
	}

	v, err := Decode[T](raw)
	if err != nil {
		logging.From(ctx).Warn("stored value is corrupted, using default",
			"error", goerr.Wrap(err, "failed to decode", goerr.V("scope", scope), goerr.V("key", key)))
		return def
	}
	if v == nil {
		return def
	}
	return *v
}

// Decode parses raw JSON. It returns nil for a JSON null and an error wrapping
// model.ErrStorageDecode when raw is not valid for T.
func Decode[T any](raw string) (*T, error) {
	if bytes.Equal(bytes.TrimSpace([]byte(raw)), []byte("null")) {
		return nil, nil
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, goerr.Wrap(model.ErrStorageDecode, err.Error())
	}
	return &v, nil
}

// Save encodes v as JSON and overwrites key
func Save[T any](ctx context.Context, s *Store, scope Scope, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return goerr.Wrap(err, "failed to encode value", goerr.V("key", key))
	}
	return s.Set(ctx, scope, key, string(raw))
}

// Update performs a read-modify-write of key. Updates of the same key from
// this process are serialized; writers in other processes are not, and the
// last whole-value write wins. If fn returns an error nothing is written.
func Update[T any](ctx context.Context, s *Store, scope Scope, key string, def T, fn func(T) (T, error)) (T, error) {
	unlock := s.lock(scope, key)

	current := Load(ctx, s, scope, key, def)
	next, err := fn(current)
	if err != nil {
		unlock()
		return current, err
	}

	raw, err := json.Marshal(next)
	if err != nil {
		unlock()
		return current, goerr.Wrap(err, "failed to encode value", goerr.V("key", key))
	}
	if err := s.set(ctx, scope, key, string(raw)); err != nil {
		unlock()
		return current, err
	}
	unlock()

	s.publish(ctx, Change{Scope: scope, Key: key})
	return next, nil
}
