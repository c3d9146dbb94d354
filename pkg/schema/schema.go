// Package schema provides the metadata source for one Oracle database. It
// establishes a connection with bounded retry and fetches column-level
// metadata from the all_tab_columns catalog view for the configured schemas,
// excluding the database's own built-in schemas.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agustin/oracle_ddl_compare/pkg/config"
	go_ora "github.com/sijms/go-ora/v2"
)

// ColumnRecord is one row of column metadata: a (owner, table, column) triple
// together with the attributes the comparison looks at.
type ColumnRecord struct {
	Owner         string        // Schema owning the table
	TableName     string        // Table name
	ColumnName    string        // Column name
	DataType      string        // Oracle data type (VARCHAR2, NUMBER, ...)
	DataLength    sql.NullInt64 // Declared length for character types
	DataPrecision sql.NullInt64 // Numeric precision, null for non-numeric types
	DataScale     sql.NullInt64 // Numeric scale, null for non-numeric types
	Nullable      string        // "Y" if the column accepts NULL, "N" otherwise
}

// Snapshot is the ordered set of column records fetched from one database at
// one point in time. It is produced fresh on every fetch and owned by the
// caller.
type Snapshot []ColumnRecord

// systemSchemas is the fixed deny-list of Oracle built-in schemas that are
// never part of a comparison, whatever the configured allow-list says.
var systemSchemas = []string{
	"SYS", "SYSTEM", "OUTLN", "XDB", "DBSNMP", "APPQOSSYS", "AUDSYS", "CTXSYS",
	"DVSYS", "DVF", "GGSYS", "GSMADMIN_INTERNAL", "LBACSYS", "MDSYS", "OJVMSYS",
	"OLAPSYS", "ORDPLUGINS", "ORDSYS", "SI_INFORMTN_SCHEMA", "WMSYS", "DIP",
	"APEX_040000", "APEX_050000", "APEX_180200", "APEX_210100", "FLOWS_FILES",
	"ANONYMOUS", "XS$NULL", "SPATIAL_CSW_ADMIN_USR", "SPATIAL_WFS_ADMIN_USR",
	"PUBLIC", "PERFSTAT", "AUDIT_ADMIN", "AUDIT_VIEWER", "ORACLE_OCM",
	"REMOTE_SCHEDULER_AGENT", "DBSFWUSER", "SYSDG", "SYSKM", "SYSRAC",
	"SYSBACKUP", "MGMT_VIEW", "SQLTXPLAIN", "GSMCATUSER", "GSMUSER",
	"GSMROOTUSER", "GSMREGUSER", "CDB$ROOT", "PDB$SEED",
}

// Source is a connected metadata source for a single Oracle database. It owns
// its connection exclusively for its lifetime; Close releases it.
type Source struct {
	db  *sql.DB
	cfg config.DBConfig
	log *slog.Logger
}

// dialFunc opens and verifies one database connection. Injectable so the
// retry loop can be tested without a listener.
type dialFunc func(ctx context.Context) (*sql.DB, error)

// Connect establishes a connection to the database described by cfg, retrying
// up to cfg.RetryCount times with a fixed delay of cfg.RetryDelay seconds
// between attempts. Every attempt is logged; after the final failed attempt
// the underlying error is returned and the caller should treat it as fatal.
func Connect(ctx context.Context, cfg config.DBConfig, log *slog.Logger) (*Source, error) {
	dial := func(ctx context.Context) (*sql.DB, error) {
		url := go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.ServiceName, cfg.User, cfg.Password, nil)
		db, err := sql.Open("oracle", url)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}
	return connect(ctx, cfg, log, dial, time.Sleep)
}

// connect runs the bounded retry loop around dial. Fixed attempt count and
// fixed delay between attempts, no backoff.
func connect(ctx context.Context, cfg config.DBConfig, log *slog.Logger, dial dialFunc, sleep func(time.Duration)) (*Source, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.RetryCount; attempt++ {
		log.Info("attempting database connection",
			"label", cfg.Label, "attempt", attempt, "max_attempts", cfg.RetryCount)

		db, err := dial(ctx)
		if err == nil {
			log.Info("database connection established", "label", cfg.Label)
			return &Source{db: db, cfg: cfg, log: log}, nil
		}

		lastErr = err
		log.Error("database connection failed", "label", cfg.Label, "attempt", attempt, "error", err)
		if attempt < cfg.RetryCount {
			log.Info("retrying connection", "label", cfg.Label, "delay_seconds", cfg.RetryDelay)
			sleep(time.Duration(cfg.RetryDelay) * time.Second)
		}
	}

	log.Error("max connection attempts reached", "label", cfg.Label, "attempts", cfg.RetryCount)
	return nil, fmt.Errorf("error connecting to %s after %d attempts: %w", cfg.Label, cfg.RetryCount, lastErr)
}

// FetchColumns retrieves the column metadata for the source's configured
// schemas. Query failures are logged and returned without retry.
func (s *Source) FetchColumns(ctx context.Context) (Snapshot, error) {
	s.log.Info("fetching column metadata", "label", s.cfg.Label, "schemas", s.cfg.Schemas)

	rows, err := s.db.QueryContext(ctx, columnQuery(s.cfg.Schemas))
	if err != nil {
		s.log.Error("error fetching columns", "label", s.cfg.Label, "error", err)
		return nil, fmt.Errorf("error fetching columns from %s: %w", s.cfg.Label, err)
	}
	defer rows.Close()

	var snap Snapshot
	for rows.Next() {
		var rec ColumnRecord
		if err := rows.Scan(&rec.Owner, &rec.TableName, &rec.ColumnName, &rec.DataType,
			&rec.DataLength, &rec.DataPrecision, &rec.DataScale, &rec.Nullable); err != nil {
			s.log.Error("error scanning column row", "label", s.cfg.Label, "error", err)
			return nil, fmt.Errorf("error scanning column row from %s: %w", s.cfg.Label, err)
		}
		snap = append(snap, rec)
	}
	if err := rows.Err(); err != nil {
		s.log.Error("error reading column rows", "label", s.cfg.Label, "error", err)
		return nil, fmt.Errorf("error reading column rows from %s: %w", s.cfg.Label, err)
	}

	s.log.Info("fetched column metadata", "label", s.cfg.Label, "rows", len(snap))
	return snap, nil
}

// Close releases the source's database connection.
func (s *Source) Close() error {
	return s.db.Close()
}

// columnQuery builds the catalog query for the given schema allow-list.
// Owners must not be in the fixed system-schema deny-list and must be in the
// allow-list. Schema names come from the operator's own configuration, so
// they are interpolated as quoted literals rather than bound.
func columnQuery(schemas []string) string {
	return fmt.Sprintf(`
		SELECT owner, table_name, column_name, data_type, data_length, data_precision, data_scale, nullable
		FROM all_tab_columns
		WHERE owner NOT IN (%s)
		AND owner IN (%s)
		ORDER BY owner, table_name, column_id`,
		quoteList(systemSchemas), quoteList(schemas))
}

// quoteList renders names as a comma-separated list of single-quoted SQL
// string literals.
func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
