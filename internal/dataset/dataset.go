// Package dataset owns read access to the record store. Backends report
// contention as model.ErrBusy; the Accessor retries those with backoff.
package dataset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// Backend is a physical dataset implementation (sqlite, postgres).
type Backend interface {
	// Lookup returns at most limit records matching value in the column selected by kind.
	// An empty result is not an error.
	Lookup(ctx context.Context, kind model.FieldKind, value string, limit int) ([]model.Record, error)
	Stats(ctx context.Context) (model.DatasetStats, error)
	HealthPing(ctx context.Context) error
	Close() error
}

// Columns selected for every record, in scan order.
const SelectColumns = "mobile, alt_mobile, name, fname, address, email, circle, operator_id"

// Column returns the dataset column searched for kind.
func Column(kind model.FieldKind) (string, error) {
	switch kind {
	case model.KindIdentifier:
		return "mobile", nil
	case model.KindName:
		return "name", nil
	case model.KindEmail:
		return "email", nil
	case model.KindAddress:
		return "address", nil
	case model.KindFatherName:
		return "fname", nil
	}
	return "", fmt.Errorf("%w: no column for kind %q", model.ErrValidation, kind)
}

// LikePattern builds a substring pattern, escaping LIKE metacharacters with '\'.
func LikePattern(value string) string {
	buf := make([]byte, 0, len(value)+4)
	buf = append(buf, '%')
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '%', '_', '\\':
			buf = append(buf, '\\', c)
		default:
			buf = append(buf, c)
		}
	}
	return string(append(buf, '%'))
}

// ScanRecords drains rows selected with SelectColumns.
func ScanRecords(rows *sql.Rows) ([]model.Record, error) {
	defer func() { _ = rows.Close() }()

	var out []model.Record
	for rows.Next() {
		var phone, alt, name, fname, addr, email, region, op sql.NullString
		if err := rows.Scan(&phone, &alt, &name, &fname, &addr, &email, &region, &op); err != nil {
			return nil, err
		}
		out = append(out, model.Record{
			Phone:      phone.String,
			AltPhone:   alt.String,
			Name:       name.String,
			FatherName: fname.String,
			Address:    addr.String,
			Email:      email.String,
			Region:     region.String,
			OperatorID: op.String,
		})
	}
	return out, rows.Err()
}
