package rolegate

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fernandezvara/dbkit"
)

// ExportFormat selects the audit export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// auditCSVHeader is the fixed column order of CSV exports.
var auditCSVHeader = []string{
	"id",
	"timestamp",
	"user_id",
	"role_before",
	"role_after",
	"performed_by",
	"reason",
	"ip_address",
	"user_agent",
	"metadata",
}

// ExportAuditLog renders every audit record matching the filter in the
// requested format, newest first. Pagination on the filter is ignored:
// an export always covers the full matching set. CSV carries a header
// row with RFC-4180 quoting; JSON is an array of record objects. Both
// formats yield identical record sets and values for the same filter.
func (s *Service) ExportAuditLog(ctx context.Context, filter AuditFilter, format ExportFormat) ([]byte, error) {
	var records []AuditRecord
	q := applyAuditFilter(s.db.NewSelect().Model(&records), filter).
		Order("timestamp DESC")
	if err := dbkit.WithErr1(q.Scan(ctx), "ExportAuditLog").Err(); err != nil {
		return nil, err
	}

	switch format {
	case ExportCSV:
		return MarshalAuditCSV(records)
	case ExportJSON:
		return MarshalAuditJSON(records)
	default:
		return nil, NewError(ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// MarshalAuditCSV renders records as CSV: a header row, then one row per
// record. Fields containing the delimiter, quote character or newlines
// are quoted and escaped by the encoder.
func MarshalAuditCSV(records []AuditRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(auditCSVHeader); err != nil {
		return nil, err
	}
	for i := range records {
		row, err := auditCSVRow(&records[i])
		if err != nil {
			return nil, err
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalAuditJSON renders records as a JSON array of record objects.
func MarshalAuditJSON(records []AuditRecord) ([]byte, error) {
	if records == nil {
		records = []AuditRecord{}
	}
	return json.Marshal(records)
}

func auditCSVRow(r *AuditRecord) ([]string, error) {
	metadata := ""
	if len(r.Metadata) > 0 {
		raw, err := json.Marshal(r.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = string(raw)
	}

	return []string{
		r.ID,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		r.UserID,
		r.RoleBefore,
		r.RoleAfter,
		r.PerformedBy,
		r.Reason,
		r.IPAddress,
		r.UserAgent,
		metadata,
	}, nil
}
