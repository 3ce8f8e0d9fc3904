package aggregates

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
)

// advanceStatus moves a locked row from one status to the next, writing extra
// columns alongside. It only applies while the row still reads from, so a
// writer that lost a race gets a conflict instead of overwriting.
func advanceStatus[S ~string](dbc dbctx.Context, table string, id uuid.UUID, from, to S, extra map[string]any) error {
	if dbc.Tx == nil {
		return InvariantError("status change outside a write transaction")
	}
	if table == "" || id == uuid.Nil {
		return ValidationError("status change needs a table and a row id")
	}
	cols := make(map[string]any, len(extra)+2)
	for k, v := range extra {
		cols[k] = v
	}
	cols["status"] = string(to)
	if _, ok := cols["updated_at"]; !ok {
		cols["updated_at"] = time.Now().UTC()
	}
	res := dbc.DB(nil).Table(table).
		Where("id = ? AND status = ? AND deleted_at IS NULL", id, string(from)).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ConflictError(table + " " + id.String() + " is no longer " + string(from))
	}
	return nil
}

// mayLeave reports whether current is one of allowed. No allowed states means any.
func mayLeave[S ~string](current S, allowed []S) bool {
	return len(allowed) == 0 || slices.Contains(allowed, current)
}
