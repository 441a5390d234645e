package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/requestcontext"
)

var exportHeader = []string{"id", "timestamp", "actor_id", "actor_name", "action", "sector_code", "detail"}

// Export writes the records visible to caller as CSV, under the same scoping
// as Query. The export itself is audited.
func (l *Ledger) Export(ctx context.Context, caller requestcontext.AuthPrincipal, f Filter, w io.Writer) (int, error) {
	records, err := l.Query(ctx, caller, f)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write export")
	}
	for _, rec := range records {
		detail, err := json.Marshal(rec.Detail)
		if err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode audit detail")
		}
		actor := ""
		if rec.ActorID != nil {
			actor = rec.ActorID.String()
		}
		row := []string{
			strconv.FormatInt(int64(rec.ID), 10),
			rec.Timestamp.UTC().Format(time.RFC3339Nano),
			actor,
			rec.ActorName,
			string(rec.Action),
			rec.SectorCode,
			string(detail),
		}
		if err := cw.Write(row); err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write export")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write export")
	}

	l.Record(ctx, Entry{
		ActorID:  caller.AccountID,
		SectorID: caller.SectorID,
		Action:   ActionAuditExported,
		Detail: map[string]any{
			"rows":        len(records),
			"action_like": f.ActionLike,
		},
	})
	return len(records), nil
}
