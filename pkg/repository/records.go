package repository

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/utils/logging"
)

// decodeRecords decodes each entry on its own so one corrupted record does
// not hide the rest of the collection. Entries that are null, fail to decode
// or are rejected by valid are dropped with a warning.
func decodeRecords[T any](ctx context.Context, kind string, raws []json.RawMessage, valid func(*T) bool) []*T {
	records := make([]*T, 0, len(raws))
	for i, raw := range raws {
		var rec *T
		if err := json.Unmarshal(raw, &rec); err != nil || rec == nil || !valid(rec) {
			logging.From(ctx).Warn("skipping corrupted record", "kind", kind, "index", i, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// encodeRecords is the inverse of decodeRecords. Nil entries are not written.
func encodeRecords[T any](kind string, records []*T) ([]json.RawMessage, error) {
	raws := make([]json.RawMessage, 0, len(records))
	for i, rec := range records {
		if rec == nil {
			continue
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode record", goerr.V("kind", kind), goerr.V("index", i))
		}
		raws = append(raws, raw)
	}
	return raws, nil
}
