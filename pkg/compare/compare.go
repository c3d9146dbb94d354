// Package compare takes two column-metadata snapshots and computes their
// structural differences: columns present in both databases with differing
// attributes, and columns present only on one side.
package compare

import (
	"log/slog"

	"github.com/agustin/oracle_ddl_compare/pkg/schema"
)

// Suffixes qualifying the first and second database's values in the
// differing-columns output.
const (
	SuffixDB1 = "_db1"
	SuffixDB2 = "_db2"
)

// Key is the join key used to match column records across the two snapshots.
// The owner is deliberately not part of the key: table and column names are
// assumed unique across the compared schemas.
type Key struct {
	TableName  string
	ColumnName string
}

// DiffRow is one column that exists in both databases but differs in at least
// one of its compared attributes. Both sides' full records are carried so the
// report can show the two values next to each other.
type DiffRow struct {
	TableName  string
	ColumnName string
	DB1        schema.ColumnRecord // Record from the primary database
	DB2        schema.ColumnRecord // Record from the secondary database
}

// DifferingAttributes returns the names of the attributes that differ between
// the two sides of the row, in a fixed order.
func (r DiffRow) DifferingAttributes() []string {
	var attrs []string
	if r.DB1.DataType != r.DB2.DataType {
		attrs = append(attrs, "data_type")
	}
	if r.DB1.DataLength != r.DB2.DataLength {
		attrs = append(attrs, "data_length")
	}
	if r.DB1.DataPrecision != r.DB2.DataPrecision {
		attrs = append(attrs, "data_precision")
	}
	if r.DB1.DataScale != r.DB2.DataScale {
		attrs = append(attrs, "data_scale")
	}
	if r.DB1.Nullable != r.DB2.Nullable {
		attrs = append(attrs, "nullable")
	}
	return attrs
}

// Result holds the three derived tables of one comparison run. All three are
// read-only views over the run that produced them.
type Result struct {
	Diff      []DiffRow       // Columns in both databases with differing attributes
	OnlyInDB1 schema.Snapshot // Columns only present in the primary database
	OnlyInDB2 schema.Snapshot // Columns only present in the secondary database
}

// Comparator compares two snapshots. It is stateless apart from its logger;
// comparing the same inputs twice yields identical results.
type Comparator struct {
	log *slog.Logger
}

// New creates a Comparator with the given logger.
func New(log *slog.Logger) *Comparator {
	return &Comparator{log: log}
}

// Compare joins the two snapshots on (table name, column name) and produces
// the differing columns plus the two set differences.
//
// If either snapshot is empty the comparison is skipped entirely: the result
// carries an empty Diff and the two raw snapshots unchanged. This avoids
// meaningless output when one side enumerated no columns, but it does not
// distinguish a legitimately empty schema from a failed fetch — the warning
// in the log is the only signal.
func (c *Comparator) Compare(first, second schema.Snapshot) Result {
	if len(first) == 0 || len(second) == 0 {
		c.log.Warn("empty snapshot, skipping comparison",
			"db1_rows", len(first), "db2_rows", len(second))
		return Result{OnlyInDB1: first, OnlyInDB2: second}
	}

	firstByKey := indexByKey(c.log, "db1", first)
	secondByKey := indexByKey(c.log, "db2", second)

	var res Result
	for _, rec := range first {
		key := Key{TableName: rec.TableName, ColumnName: rec.ColumnName}
		other, exists := secondByKey[key]
		if !exists {
			res.OnlyInDB1 = append(res.OnlyInDB1, rec)
			continue
		}
		if recordsDiffer(rec, other) {
			res.Diff = append(res.Diff, DiffRow{
				TableName:  rec.TableName,
				ColumnName: rec.ColumnName,
				DB1:        rec,
				DB2:        other,
			})
		}
	}

	for _, rec := range second {
		key := Key{TableName: rec.TableName, ColumnName: rec.ColumnName}
		if _, exists := firstByKey[key]; !exists {
			res.OnlyInDB2 = append(res.OnlyInDB2, rec)
		}
	}

	c.log.Info("comparison completed",
		"diff", len(res.Diff), "only_db1", len(res.OnlyInDB1), "only_db2", len(res.OnlyInDB2))
	return res
}

// indexByKey builds the join map for one snapshot. A duplicate key within a
// snapshot is logged and the later record wins; the key ignores the owner, so
// the same table/column pair under two owners collapses here.
func indexByKey(log *slog.Logger, side string, snap schema.Snapshot) map[Key]schema.ColumnRecord {
	byKey := make(map[Key]schema.ColumnRecord, len(snap))
	for _, rec := range snap {
		key := Key{TableName: rec.TableName, ColumnName: rec.ColumnName}
		if _, exists := byKey[key]; exists {
			log.Warn("duplicate join key in snapshot, keeping last record",
				"side", side, "table", key.TableName, "column", key.ColumnName)
		}
		byKey[key] = rec
	}
	return byKey
}

// recordsDiffer reports whether any compared attribute differs between the
// two records. Owner is informational and not compared.
func recordsDiffer(a, b schema.ColumnRecord) bool {
	return a.DataType != b.DataType ||
		a.DataLength != b.DataLength ||
		a.DataPrecision != b.DataPrecision ||
		a.DataScale != b.DataScale ||
		a.Nullable != b.Nullable
}
