package board

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Ledger is the append-only activity log of tasks.
type Ledger struct {
	repo Repository
	log  logrus.FieldLogger
}

func NewLedger(repo Repository, log logrus.FieldLogger) *Ledger {
	return &Ledger{repo: repo, log: log}
}

// Record appends entries in order. Failures are logged and never returned.
func (l *Ledger) Record(ctx context.Context, entries []Activity) {
	for _, a := range entries {
		if _, err := l.repo.AppendActivity(ctx, a); err != nil {
			l.log.WithError(err).WithFields(logrus.Fields{
				"task_id": a.TaskID,
				"action":  a.Action,
			}).Warn("activity append failed")
		}
	}
}

func (l *Ledger) History(ctx context.Context, taskID int64) ([]Activity, error) {
	items, err := l.repo.ListActivities(ctx, taskID)
	if err != nil {
		return nil, Internal("list activities", err)
	}
	if items == nil {
		items = []Activity{}
	}
	return items, nil
}
