package compare

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/agustin/oracle_ddl_compare/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// varchar builds a VARCHAR2 column record with the given length and
// nullability.
func varchar(table, column string, length int64, nullable string) schema.ColumnRecord {
	return schema.ColumnRecord{
		Owner:      "APP",
		TableName:  table,
		ColumnName: column,
		DataType:   "VARCHAR2",
		DataLength: sql.NullInt64{Int64: length, Valid: true},
		Nullable:   nullable,
	}
}

// number builds a NUMBER column record with the given precision and scale.
func number(table, column string, precision, scale int64) schema.ColumnRecord {
	return schema.ColumnRecord{
		Owner:         "APP",
		TableName:     table,
		ColumnName:    column,
		DataType:      "NUMBER",
		DataLength:    sql.NullInt64{Int64: 22, Valid: true},
		DataPrecision: sql.NullInt64{Int64: precision, Valid: true},
		DataScale:     sql.NullInt64{Int64: scale, Valid: true},
		Nullable:      "Y",
	}
}

func TestCompare_IdenticalSnapshots(t *testing.T) {
	first := schema.Snapshot{
		varchar("ORDERS", "STATUS", 20, "N"),
		number("ORDERS", "AMOUNT", 10, 2),
	}
	second := schema.Snapshot{
		varchar("ORDERS", "STATUS", 20, "N"),
		number("ORDERS", "AMOUNT", 10, 2),
	}

	res := New(discardLogger()).Compare(first, second)

	assert.Empty(t, res.Diff)
	assert.Empty(t, res.OnlyInDB1)
	assert.Empty(t, res.OnlyInDB2)
}

func TestCompare_DisjointKeysPartitionInputs(t *testing.T) {
	first := schema.Snapshot{
		varchar("ORDERS", "STATUS", 20, "N"),
		number("ORDERS", "AMOUNT", 10, 2),
	}
	second := schema.Snapshot{
		varchar("CUSTOMERS", "NAME", 100, "Y"),
	}

	res := New(discardLogger()).Compare(first, second)

	assert.Empty(t, res.Diff)
	assert.Equal(t, first, res.OnlyInDB1)
	assert.Equal(t, second, res.OnlyInDB2)
}

func TestCompare_EmptySnapshotShortCircuits(t *testing.T) {
	populated := schema.Snapshot{varchar("ORDERS", "STATUS", 20, "N")}

	tests := []struct {
		name          string
		first, second schema.Snapshot
	}{
		{name: "first empty", first: nil, second: populated},
		{name: "second empty", first: populated, second: nil},
		{name: "both empty", first: nil, second: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(discardLogger()).Compare(tt.first, tt.second)

			assert.Empty(t, res.Diff)
			assert.Equal(t, tt.first, res.OnlyInDB1)
			assert.Equal(t, tt.second, res.OnlyInDB2)
		})
	}
}

func TestCompare_Idempotent(t *testing.T) {
	first := schema.Snapshot{
		varchar("ORDERS", "STATUS", 20, "N"),
		varchar("ORDERS", "NOTE", 200, "Y"),
	}
	second := schema.Snapshot{
		varchar("ORDERS", "STATUS", 30, "N"),
		number("ORDERS", "AMOUNT", 10, 2),
	}

	c := New(discardLogger())
	assert.Equal(t, c.Compare(first, second), c.Compare(first, second))
}

func TestCompare_LengthAndNullabilityDiffer(t *testing.T) {
	first := schema.Snapshot{varchar("TABLE1", "COL1", 20, "N")}
	second := schema.Snapshot{varchar("TABLE1", "COL1", 30, "Y")}

	res := New(discardLogger()).Compare(first, second)

	require.Len(t, res.Diff, 1)
	assert.Empty(t, res.OnlyInDB1)
	assert.Empty(t, res.OnlyInDB2)

	row := res.Diff[0]
	assert.Equal(t, "TABLE1", row.TableName)
	assert.Equal(t, "COL1", row.ColumnName)
	assert.Equal(t, int64(20), row.DB1.DataLength.Int64)
	assert.Equal(t, int64(30), row.DB2.DataLength.Int64)
	assert.Equal(t, []string{"data_length", "nullable"}, row.DifferingAttributes())
}

func TestCompare_PrecisionAndScaleDiffer(t *testing.T) {
	first := schema.Snapshot{number("ORDERS", "AMOUNT", 10, 2)}
	second := schema.Snapshot{number("ORDERS", "AMOUNT", 12, 4)}

	res := New(discardLogger()).Compare(first, second)

	require.Len(t, res.Diff, 1)
	assert.Equal(t, []string{"data_precision", "data_scale"}, res.Diff[0].DifferingAttributes())
}

func TestCompare_NullVersusZeroLengthDiffer(t *testing.T) {
	withLength := varchar("ORDERS", "STATUS", 0, "N")
	withoutLength := varchar("ORDERS", "STATUS", 0, "N")
	withoutLength.DataLength = sql.NullInt64{}

	res := New(discardLogger()).Compare(schema.Snapshot{withLength}, schema.Snapshot{withoutLength})

	require.Len(t, res.Diff, 1)
	assert.Equal(t, []string{"data_length"}, res.Diff[0].DifferingAttributes())
}

func TestCompare_DuplicateKeyLastRecordWins(t *testing.T) {
	// Same table/column under two owners collapses onto one join key; the
	// later record is the one compared.
	dupA := varchar("ORDERS", "STATUS", 20, "N")
	dupB := varchar("ORDERS", "STATUS", 40, "N")
	dupB.Owner = "APP2"

	res := New(discardLogger()).Compare(
		schema.Snapshot{dupA, dupB},
		schema.Snapshot{varchar("ORDERS", "STATUS", 40, "N")},
	)

	// dupA still flows through the row loop, so it surfaces as a diff
	// against the second side, while dupB matches exactly.
	require.Len(t, res.Diff, 1)
	assert.Equal(t, int64(20), res.Diff[0].DB1.DataLength.Int64)
	assert.Empty(t, res.OnlyInDB1)
	assert.Empty(t, res.OnlyInDB2)
}
