// Package exec runs built statements against a database/sql pool with
// validation, tracing, logging and auditing around every call.
package exec

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	// Registered drivers: "mysql" and "sqlite".
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/coregx/qbuild/internal/config"
	"github.com/coregx/qbuild/internal/core"
	"github.com/coregx/qbuild/internal/logger"
	"github.com/coregx/qbuild/internal/security"
	"github.com/coregx/qbuild/internal/tracer"
)

// ErrUnsafeQuery is returned when the validator rejects a statement.
var ErrUnsafeQuery = security.ErrUnsafeQuery

// Runner executes statements. It is safe for concurrent use.
type Runner struct {
	db        *sql.DB
	system    string
	logger    logger.Logger
	sanitizer *logger.Sanitizer
	tracer    tracer.Tracer
	validator *security.Validator
	auditor   *security.Auditor

	healthInterval time.Duration
	health         *healthChecker
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger for execution log lines.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSanitizer sets the sanitizer masking bindings in log lines.
func WithSanitizer(s *logger.Sanitizer) Option {
	return func(r *Runner) {
		if s != nil {
			r.sanitizer = s
		}
	}
}

// WithTracer sets the tracer; the default records nothing.
func WithTracer(t tracer.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithValidator screens every statement before it is prepared.
func WithValidator(v *security.Validator) Option {
	return func(r *Runner) {
		r.validator = v
	}
}

// WithAuditor records every executed or blocked statement.
func WithAuditor(a *security.Auditor) Option {
	return func(r *Runner) {
		r.auditor = a
	}
}

// WithSystem names the database system in span attributes, e.g. "mysql".
func WithSystem(name string) Option {
	return func(r *Runner) {
		r.system = name
	}
}

// New wraps db. The caller keeps ownership of db unless Close is called.
func New(db *sql.DB, opts ...Option) *Runner {
	r := &Runner{
		db:        db,
		logger:    &logger.NoopLogger{},
		sanitizer: logger.NewSanitizer(nil),
		tracer:    &tracer.NoopTracer{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.healthInterval > 0 {
		r.health = newHealthChecker(db, r.logger, r.healthInterval)
		r.health.start()
	}
	return r
}

// Open opens a pool for cfg and configures the runner from it. opts are
// applied after the configured ones.
func Open(cfg *config.Config, opts ...Option) (*Runner, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.Driver)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	log := logger.New(os.Stderr, cfg.LogLevel)
	base := []Option{
		WithSystem(cfg.Driver),
		WithLogger(log),
		WithSanitizer(logger.NewSanitizer(cfg.SensitiveFields)),
	}
	if cfg.Validate || cfg.Strict {
		base = append(base, WithValidator(security.NewValidator(security.WithStrict(cfg.Strict))))
	}
	if level := security.ParseAuditLevel(cfg.Audit); level != security.AuditNone {
		base = append(base, WithAuditor(security.NewAuditor(log, level)))
	}
	if cfg.Tracing {
		base = append(base, WithTracer(tracer.FromProvider(nil)))
	}
	if cfg.HealthInterval > 0 {
		base = append(base, WithHealthCheck(cfg.HealthInterval))
	}
	return New(db, append(base, opts...)...), nil
}

// DB returns the underlying pool.
func (r *Runner) DB() *sql.DB {
	return r.db
}

// Close stops the health check, if any, and closes the underlying pool.
// Health keeps reporting the last result afterwards.
func (r *Runner) Close() error {
	if r.health != nil {
		r.health.shutdown()
	}
	return errors.Wrap(r.db.Close(), "close database")
}

// Ping checks the connection.
func (r *Runner) Ping(ctx context.Context) error {
	return errors.Wrap(r.db.PingContext(ctx), "ping")
}

// Select builds q and runs it with Query.
func (r *Runner) Select(ctx context.Context, q *core.Query) (*sql.Rows, error) {
	stmt, err := q.Build()
	if err != nil {
		return nil, err
	}
	return r.Query(ctx, stmt)
}

// Query runs a row-returning statement. The caller closes the rows.
func (r *Runner) Query(ctx context.Context, stmt *core.Statement) (rows *sql.Rows, err error) {
	ctx, span := r.tracer.StartSpan(ctx, tracer.SpanName(stmt.SQL))
	defer span.End()
	start := time.Now()

	defer func() {
		r.finish(ctx, span, stmt, 0, time.Since(start), err)
	}()

	if err = r.validate(ctx, stmt); err != nil {
		return nil, err
	}

	ps, err := r.db.PrepareContext(ctx, stmt.SQL)
	if err != nil {
		return nil, errors.Wrap(err, "prepare")
	}
	// Closing the statement is deferred by database/sql until rows are closed.
	defer func() {
		err = multierr.Append(err, errors.Wrap(ps.Close(), "close statement"))
		if err != nil && rows != nil {
			_ = rows.Close()
			rows = nil
		}
	}()

	rows, err = ps.QueryContext(ctx, stmt.Bindings...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	return rows, nil
}

// Exec runs a statement that returns no rows.
func (r *Runner) Exec(ctx context.Context, stmt *core.Statement) (res sql.Result, err error) {
	ctx, span := r.tracer.StartSpan(ctx, tracer.SpanName(stmt.SQL))
	defer span.End()
	start := time.Now()

	var affected int64
	defer func() {
		r.finish(ctx, span, stmt, affected, time.Since(start), err)
	}()

	if err = r.validate(ctx, stmt); err != nil {
		return nil, err
	}

	ps, err := r.db.PrepareContext(ctx, stmt.SQL)
	if err != nil {
		return nil, errors.Wrap(err, "prepare")
	}
	defer func() {
		err = multierr.Append(err, errors.Wrap(ps.Close(), "close statement"))
	}()

	res, err = ps.ExecContext(ctx, stmt.Bindings...)
	if err != nil {
		return nil, errors.Wrap(err, "exec")
	}
	if n, rerr := res.RowsAffected(); rerr == nil {
		affected = n
	}
	return res, nil
}

func (r *Runner) validate(ctx context.Context, stmt *core.Statement) error {
	if r.validator == nil {
		return nil
	}
	if err := r.validator.Validate(stmt.SQL, stmt.Bindings); err != nil {
		if r.auditor != nil {
			r.auditor.RecordBlocked(ctx, stmt.SQL, err)
		}
		return err
	}
	return nil
}

func (r *Runner) finish(ctx context.Context, span tracer.Span, stmt *core.Statement, rows int64, d time.Duration, err error) {
	op := tracer.Operation(stmt.SQL)
	table := tracer.PrimaryTable(stmt.SQL)

	tracer.Annotate(span, &tracer.QueryMetadata{
		System:    r.system,
		SQL:       stmt.SQL,
		Bindings:  len(stmt.Bindings),
		Duration:  d,
		Rows:      rows,
		Operation: op,
		Table:     table,
		Err:       err,
	})

	params := r.sanitizer.FormatParams(r.sanitizer.MaskParams(stmt.SQL, stmt.Bindings))
	if err != nil {
		r.logger.Error("query execution failed", "sql", stmt.SQL, "params", params, "duration", d, "error", err)
	} else {
		r.logger.Debug("query executed", "sql", stmt.SQL, "params", params, "duration", d, "rows", rows)
	}

	if r.auditor != nil && !errors.Is(err, ErrUnsafeQuery) && !errors.Is(err, security.ErrUnsafeParam) {
		r.auditor.Record(ctx, security.AuditEvent{
			Operation: op,
			Table:     table,
			SQL:       stmt.SQL,
			Bindings:  stmt.Bindings,
			Rows:      rows,
			Err:       err,
			Duration:  d,
		})
	}
}
