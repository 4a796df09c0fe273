package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/codec"
	"github.com/roach88/rdfio/internal/config"
	"github.com/roach88/rdfio/internal/querysql"
	"github.com/roach88/rdfio/internal/rdf"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on statements.g for graph-restricted queries
const currentSchemaVersion = 1

// SQLiteRepository is a statement store in a SQLite database.
type SQLiteRepository struct {
	db          *sql.DB
	compiler    *querysql.SQLCompiler
	connPragmas []string
}

func openMemory(_ context.Context, _ config.Store) (Repository, error) {
	return OpenMemory()
}

func openSQLite(_ context.Context, cfg config.Store) (Repository, error) {
	return OpenSQLite(cfg.Path)
}

// Connection pragmas go in the DSN so every pooled connection gets them.
// _txlock=immediate takes the write lock at BEGIN, where busy_timeout
// applies, instead of failing on lock upgrade mid-transaction.
const (
	memoryParams = "mode=memory&cache=shared&_busy_timeout=5000&_txlock=immediate"
	fileParams   = "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate"
)

// OpenMemory creates a private in-memory database. It disappears when the
// repository is closed.
//
// Connections of an in-memory repository share one page cache. They read
// with read_uncommitted so an open cursor never blocks a writer on another
// connection; the price is that they can see each other's uncommitted
// writes. Concurrent write transactions fail fast with a locked error.
func OpenMemory() (*SQLiteRepository, error) {
	dsn := fmt.Sprintf("file:rdfio-%s?%s", uuid.NewString(), memoryParams)
	return openDB(dsn, []string{"PRAGMA read_uncommitted = true"})
}

// OpenSQLite creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	return openDB(path+"?"+fileParams, nil)
}

func openDB(dsn string, connPragmas []string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Every Connection pins its own database connection, so the pool is not
	// capped. Idle connections are kept so an in-memory database outlives
	// its last Connection.
	db.SetMaxIdleConns(2)

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteRepository{db: db, compiler: querysql.NewSQLCompiler(), connPragmas: connPragmas}, nil
}

// Connect returns a new connection backed by a database connection of its
// own. Cursors left open on one Connection do not block the others; on a
// file database concurrent writers wait up to busy_timeout for each other.
func (r *SQLiteRepository) Connect(ctx context.Context) (Connection, error) {
	dbc, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	for _, pragma := range r.connPragmas {
		if _, err := dbc.ExecContext(ctx, pragma); err != nil {
			dbc.Close()
			return nil, fmt.Errorf("connect: failed to execute %q: %w", pragma, err)
		}
	}
	return &sqliteConn{conn: dbc, compiler: r.compiler, cursors: map[io.Closer]struct{}{}}, nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_statements_g ON statements (g, s, p)`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (r *SQLiteRepository) verifyPragma(name, expected string) error {
	var value string
	if err := r.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// querier is satisfied by *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqliteConn struct {
	conn     *sql.Conn
	tx       *sql.Tx
	compiler *querysql.SQLCompiler
	closed   bool

	// open cursors, closed with the connection
	cursors map[io.Closer]struct{}
}

func (c *sqliteConn) q() querier {
	if c.tx != nil {
		return c.tx
	}
	return c.conn
}

func (c *sqliteConn) track(cur io.Closer) {
	c.cursors[cur] = struct{}{}
}

func (c *sqliteConn) release(cur io.Closer) {
	delete(c.cursors, cur)
}

func (c *sqliteConn) Begin(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if c.tx != nil {
		return ErrTransactionActive
	}
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	c.tx = tx
	return nil
}

func (c *sqliteConn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return ErrNoTransaction
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (c *sqliteConn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return ErrNoTransaction
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func (c *sqliteConn) InTransaction() bool { return c.tx != nil }

// autocommit runs fn inside the open transaction, or inside a transaction of
// its own when none is open, so multi-statement writes are atomic.
func (c *sqliteConn) autocommit(ctx context.Context, fn func(q querier) error) error {
	if c.closed {
		return ErrClosed
	}
	if c.tx != nil {
		return fn(c.tx)
	}
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (c *sqliteConn) Add(ctx context.Context, stmts ...rdf.Statement) error {
	err := c.autocommit(ctx, func(q querier) error {
		for _, st := range stmts {
			rec, err := codec.Encode(st)
			if err != nil {
				return err
			}
			_, err = q.ExecContext(ctx, `
				INSERT INTO statements (s, p, o, g)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (s, p, o, g) DO NOTHING
			`, rec.S, rec.P, rec.O, rec.G)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add statements: %w", err)
	}
	return nil
}

func (c *sqliteConn) Remove(ctx context.Context, stmts ...rdf.Statement) error {
	err := c.autocommit(ctx, func(q querier) error {
		for _, st := range stmts {
			rec, err := codec.Encode(st)
			if err != nil {
				return err
			}
			_, err = q.ExecContext(ctx,
				`DELETE FROM statements WHERE s = ? AND p = ? AND o = ? AND g = ?`,
				rec.S, rec.P, rec.O, rec.G)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove statements: %w", err)
	}
	return nil
}

func (c *sqliteConn) Match(ctx context.Context, p algebra.Pattern, ds *algebra.Dataset) (StatementCursor, error) {
	if c.closed {
		return nil, ErrClosed
	}
	compiled, err := c.compiler.CompileMatch(p, ds)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	rows, err := c.q().QueryContext(ctx, compiled.SQL, compiled.Params...)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	cur := &rowStatementCursor{rows: rows, owner: c}
	c.track(cur)
	return cur, nil
}

func (c *sqliteConn) Select(ctx context.Context, q *algebra.Select, ds *algebra.Dataset) (BindingCursor, error) {
	if c.closed {
		return nil, ErrClosed
	}
	compiled, err := c.compiler.CompileSelect(q, ds)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	rows, err := c.q().QueryContext(ctx, compiled.SQL, compiled.Params...)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	cur := &rowBindingCursor{rows: rows, vars: compiled.Columns, owner: c}
	c.track(cur)
	return cur, nil
}

// Ask evaluates an ASK without materializing solutions.
func (c *sqliteConn) Ask(ctx context.Context, q *algebra.Ask, ds *algebra.Dataset) (bool, error) {
	if c.closed {
		return false, ErrClosed
	}
	compiled, err := c.compiler.CompileAsk(q, ds)
	if err != nil {
		return false, fmt.Errorf("ask: %w", err)
	}
	var one int
	err = c.q().QueryRowContext(ctx, compiled.SQL, compiled.Params...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("ask: %w", err)
	default:
		return true, nil
	}
}

func (c *sqliteConn) Size(ctx context.Context) (int64, error) {
	if c.closed {
		return 0, ErrClosed
	}
	var n int64
	if err := c.q().QueryRowContext(ctx, `SELECT COUNT(*) FROM statements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("size: %w", err)
	}
	return n, nil
}

func (c *sqliteConn) Contexts(ctx context.Context) ([]rdf.Term, error) {
	if c.closed {
		return nil, ErrClosed
	}
	rows, err := c.q().QueryContext(ctx, `
		SELECT DISTINCT g FROM statements
		WHERE g <> ''
		ORDER BY g COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query contexts: %w", err)
	}
	defer rows.Close()

	var out []rdf.Term
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan context: %w", err)
		}
		t, err := rdf.ParseTerm(g)
		if err != nil {
			return nil, fmt.Errorf("decode context: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contexts: %w", err)
	}
	return out, nil
}

func (c *sqliteConn) Clear(ctx context.Context, graphs ...rdf.Term) error {
	err := c.autocommit(ctx, func(q querier) error {
		if len(graphs) == 0 {
			_, err := q.ExecContext(ctx, `DELETE FROM statements`)
			return err
		}
		keys := make([]any, len(graphs))
		for i, g := range graphs {
			if g == nil {
				keys[i] = ""
			} else {
				keys[i] = rdf.FormatTerm(g)
			}
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
		_, err := q.ExecContext(ctx, `DELETE FROM statements WHERE g IN (`+marks+`)`, keys...)
		return err
	})
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// Close closes open cursors, rolls back an open transaction and returns
// the database connection to the pool.
func (c *sqliteConn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	var errs []error
	for cur := range c.cursors {
		errs = append(errs, cur.Close())
	}
	if c.tx != nil {
		tx := c.tx
		c.tx = nil
		errs = append(errs, tx.Rollback())
	}
	errs = append(errs, c.conn.Close())
	return errors.Join(errs...)
}

type rowStatementCursor struct {
	rows  *sql.Rows
	owner *sqliteConn
	done  bool
}

func (c *rowStatementCursor) Next() (rdf.Statement, error) {
	if c.done {
		return rdf.Statement{}, io.EOF
	}
	if !c.rows.Next() {
		err := c.rows.Err()
		c.Close()
		if err != nil {
			return rdf.Statement{}, fmt.Errorf("iterate statements: %w", err)
		}
		return rdf.Statement{}, io.EOF
	}
	var rec codec.Record
	if err := c.rows.Scan(&rec.S, &rec.P, &rec.O, &rec.G); err != nil {
		c.Close()
		return rdf.Statement{}, fmt.Errorf("scan statement: %w", err)
	}
	st, err := codec.Decode(rec)
	if err != nil {
		c.Close()
		return rdf.Statement{}, err
	}
	return st, nil
}

func (c *rowStatementCursor) Close() error {
	if c.done {
		return nil
	}
	c.done = true
	c.owner.release(c)
	return c.rows.Close()
}

type rowBindingCursor struct {
	rows  *sql.Rows
	vars  []string
	owner *sqliteConn
	done  bool
}

func (c *rowBindingCursor) Vars() []string { return c.vars }

func (c *rowBindingCursor) Next() (algebra.Solution, error) {
	if c.done {
		return nil, io.EOF
	}
	if !c.rows.Next() {
		err := c.rows.Err()
		c.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate solutions: %w", err)
		}
		return nil, io.EOF
	}
	cols := make([]string, len(c.vars))
	ptrs := make([]any, len(cols))
	for i := range cols {
		ptrs[i] = &cols[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		c.Close()
		return nil, fmt.Errorf("scan solution: %w", err)
	}
	sol := make(algebra.Solution, len(cols))
	for i, col := range cols {
		t, err := rdf.ParseTerm(col)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("decode ?%s: %w", c.vars[i], err)
		}
		sol[c.vars[i]] = t
	}
	return sol, nil
}

func (c *rowBindingCursor) Close() error {
	if c.done {
		return nil
	}
	c.done = true
	c.owner.release(c)
	return c.rows.Close()
}
