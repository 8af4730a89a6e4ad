package reminder

import (
	"container/heap"
	"context"
	"time"

	"github.com/m-mizutani/sproutsage/pkg/interfaces"
	"github.com/m-mizutani/sproutsage/pkg/utils/logging"
)

const markerValue = "true"

// dueQueue orders entries by NextDue, soonest first
type dueQueue []*Entry

func (q dueQueue) Len() int           { return len(q) }
func (q dueQueue) Less(i, j int) bool { return q[i].Reminder.NextDue < q[j].Reminder.NextDue }
func (q dueQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *dueQueue) Push(x any) { *q = append(*q, x.(*Entry)) }

func (q *dueQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Tick runs one poll cycle and returns how many notifications were sent. It
// never fails: storage and delivery problems are logged and the cycle goes on.
func (uc *UseCase) Tick(ctx context.Context) int {
	sent, _ := uc.tick(ctx)
	return sent
}

// tick notifies every due occurrence that has no marker yet. It also returns
// the due time of the soonest reminder that is not due, or the zero time if
// there is none.
func (uc *UseCase) tick(ctx context.Context) (int, time.Time) {
	logger := logging.From(ctx)
	now := uc.now()

	q := dueQueue(uc.entries(ctx))
	heap.Init(&q)

	var due []*Entry
	for q.Len() > 0 && q[0].Reminder.IsDue(now) {
		due = append(due, heap.Pop(&q).(*Entry))
	}

	var next time.Time
	if q.Len() > 0 {
		next = q[0].Reminder.DueAt()
	}

	if len(due) == 0 {
		return 0, next
	}

	if uc.notifier == nil || uc.notifier.RequestPermission(ctx) != interfaces.PermissionGranted {
		logger.Debug("notification permission not granted, skipping", "due", len(due))
		return 0, next
	}

	sent := 0
	for _, e := range due {
		key := e.Reminder.OccurrenceKey()

		_, notified, err := uc.store.Get(ctx, uc.markerScope, key)
		if err != nil {
			logger.Warn("failed to read notification marker", "key", key, "error", err)
			continue
		}
		if notified {
			continue
		}

		// The marker is written first so a failed write can never lead to a
		// second notification for the same occurrence.
		if err := uc.store.Set(ctx, uc.markerScope, key, markerValue); err != nil {
			logger.Warn("failed to write notification marker", "key", key, "error", err)
			continue
		}

		if err := uc.notifier.Notify(ctx, NotificationTitle(e), NotificationBody(e)); err != nil {
			logger.Warn("failed to send notification", "reminder_id", e.Reminder.ID, "error", err)
			continue
		}

		logger.Info("reminder notified",
			"plant", e.Plant.CommonName,
			"type", e.Reminder.Type,
			"due", e.Reminder.DueAt(),
		)
		sent++
	}

	return sent, next
}
