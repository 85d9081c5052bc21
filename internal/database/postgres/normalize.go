package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/joacominatel/pgbrowse/internal/database"
)

func normalizeRow(values []any, fields []pgconn.FieldDescription) []database.Value {
	row := make([]database.Value, len(fields))
	for i, f := range fields {
		var v any
		if i < len(values) {
			v = values[i]
		}
		row[i] = normalizeValue(v, f.DataTypeOID)
	}
	return row
}

// normalizeValue maps a value decoded by pgx to a database.Value. The
// column type OID picks the timestamp layout and recognizes uuids.
func normalizeValue(v any, oid uint32) database.Value {
	switch x := v.(type) {
	case nil:
		return database.NullValue()
	case bool:
		return database.BoolValue(x)
	case int8:
		return database.IntValue(int64(x))
	case int16:
		return database.IntValue(int64(x))
	case int32:
		return database.IntValue(int64(x))
	case int64:
		return database.IntValue(x)
	case int:
		return database.IntValue(int64(x))
	case uint32:
		return database.IntValue(int64(x))
	case float32:
		// Round-trip through the shortest float32 text to avoid widening noise.
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(x), 'g', -1, 32), 64)
		return database.FloatValue(f)
	case float64:
		return database.FloatValue(x)
	case string:
		return database.TextValue(x)
	case time.Time:
		switch oid {
		case pgtype.DateOID:
			return database.TimeValue(x, database.LayoutDate)
		case pgtype.TimestamptzOID:
			return database.TimeValue(x, database.LayoutTimestampTZ)
		default:
			return database.TimeValue(x, database.LayoutTimestamp)
		}
	case pgtype.InfinityModifier:
		// pgx decodes infinite timestamps and dates to this int8.
		return database.TextValue(x.String())
	case []byte:
		return database.BinaryValue(x)
	case [16]byte:
		if oid == pgtype.UUIDOID {
			return database.TextValue(uuid.UUID(x).String())
		}
		return database.BinaryValue(x[:])
	case json.Marshaler:
		return database.OtherValue(x)
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return database.OtherValue(x)
		}
		return normalizeValue(dv, oid)
	default:
		return database.OtherValue(x)
	}
}
