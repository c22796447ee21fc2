package doctor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hay-kot/quill/internal/core/history"
)

// HistoryCheck reports on the history backend and its retention.
type HistoryCheck struct {
	store      *history.Store
	conn       *history.Connector
	retention  int
	persistent bool
	fix        bool
}

// NewHistoryCheck creates a new history check. persistent reports whether a
// durable backend was configured. If fix is true, entries beyond retention
// are pruned.
func NewHistoryCheck(store *history.Store, conn *history.Connector, retention int, persistent, fix bool) *HistoryCheck {
	return &HistoryCheck{
		store:      store,
		conn:       conn,
		retention:  retention,
		persistent: persistent,
		fix:        fix,
	}
}

func (c *HistoryCheck) Name() string {
	return "History"
}

func (c *HistoryCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	// Counting forces the backend open so the state below is settled.
	count, err := c.store.CountAll(ctx)
	result.Facts = append(result.Facts, Fact{Key: "state", Value: c.conn.State().String()})
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Backend",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	result.Facts = append(result.Facts,
		Fact{Key: "entries", Value: strconv.Itoa(count)},
		Fact{Key: "retention_max", Value: strconv.Itoa(c.retention)},
	)
	result.Items = append(result.Items, c.backendItem())

	if c.retention <= 0 || count <= c.retention {
		result.Items = append(result.Items, CheckItem{
			Label:  "Retention",
			Status: StatusPass,
			Detail: fmt.Sprintf("%d entries", count),
		})
		return result
	}

	if !c.fix {
		result.Items = append(result.Items, CheckItem{
			Label:   "Retention",
			Status:  StatusWarn,
			Detail:  fmt.Sprintf("%d entries exceed retention_max of %d", count, c.retention),
			Fixable: true,
		})
		return result
	}

	pruned, err := c.store.PruneOld(ctx, c.retention)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:   "Retention",
			Status:  StatusFail,
			Detail:  fmt.Sprintf("prune failed: %v", err),
			Fixable: true,
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  "Retention",
		Status: StatusPass,
		Detail: fmt.Sprintf("pruned %d entries", pruned),
	})
	return result
}

func (c *HistoryCheck) backendItem() CheckItem {
	switch {
	case c.conn.State() == history.StateReady:
		return CheckItem{Label: "Backend", Status: StatusPass, Detail: "persistent store open"}
	case c.persistent:
		return CheckItem{
			Label:  "Backend",
			Status: StatusWarn,
			Detail: "persistent store unavailable; using memory for this run",
		}
	default:
		return CheckItem{Label: "Backend", Status: StatusPass, Detail: "memory (by configuration)"}
	}
}
