package repository

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/store"
)

// HistoryLimit is the maximum number of scans kept
const HistoryLimit = 20

// History is the most-recent-first list of identifications
type History struct {
	store *store.Store
	opts  options
}

func NewHistory(s *store.Store, opts ...Option) *History {
	return &History{store: s, opts: newOptions(opts)}
}

func decodeHistory(ctx context.Context, raws []json.RawMessage) []*model.HistoryItem {
	return decodeRecords(ctx, "scan history", raws, func(item *model.HistoryItem) bool { return item.ID != "" })
}

// LoadAll returns the scans, newest first
func (h *History) LoadAll(ctx context.Context) []*model.HistoryItem {
	raws := store.Load(ctx, h.store, store.ScopeDurable, KeyScanHistory, []json.RawMessage{})
	return decodeHistory(ctx, raws)
}

// SaveAll overwrites the whole history
func (h *History) SaveAll(ctx context.Context, items []*model.HistoryItem) error {
	raws, err := encodeRecords("scan history", items)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, h.store, store.ScopeDurable, KeyScanHistory, raws); err != nil {
		return goerr.Wrap(err, "failed to save scan history")
	}
	return nil
}

func (h *History) update(ctx context.Context, fn func([]*model.HistoryItem) ([]*model.HistoryItem, error)) error {
	_, err := store.Update(ctx, h.store, store.ScopeDurable, KeyScanHistory, []json.RawMessage{},
		func(raws []json.RawMessage) ([]json.RawMessage, error) {
			next, err := fn(decodeHistory(ctx, raws))
			if err != nil {
				return nil, err
			}
			return encodeRecords("scan history", next)
		})
	if err != nil {
		return goerr.Wrap(err, "failed to update scan history")
	}
	return nil
}

// Add prepends a new scan and evicts the oldest entries beyond HistoryLimit
func (h *History) Add(ctx context.Context, plant model.CareInfo, image string) (*model.HistoryItem, error) {
	item := &model.HistoryItem{
		ID:        model.NewHistoryID(),
		Plant:     plant,
		Image:     image,
		Timestamp: h.opts.now().UnixMilli(),
	}

	err := h.update(ctx, func(items []*model.HistoryItem) ([]*model.HistoryItem, error) {
		updated := make([]*model.HistoryItem, 0, len(items)+1)
		updated = append(updated, item)
		updated = append(updated, items...)
		if len(updated) > HistoryLimit {
			updated = updated[:HistoryLimit]
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Get returns the scan with id
func (h *History) Get(ctx context.Context, id model.HistoryID) (*model.HistoryItem, error) {
	for _, item := range h.LoadAll(ctx) {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, goerr.Wrap(model.ErrNotFound, "history item not found", goerr.V("id", id))
}

// Remove deletes the scan with id. Removing an unknown id is a no-op.
func (h *History) Remove(ctx context.Context, id model.HistoryID) error {
	return h.update(ctx, func(items []*model.HistoryItem) ([]*model.HistoryItem, error) {
		filtered := make([]*model.HistoryItem, 0, len(items))
		for _, item := range items {
			if item.ID != id {
				filtered = append(filtered, item)
			}
		}
		return filtered, nil
	})
}

// Clear drops every scan. It cannot be undone; callers must confirm with the
// user first.
func (h *History) Clear(ctx context.Context) error {
	return h.SaveAll(ctx, []*model.HistoryItem{})
}
