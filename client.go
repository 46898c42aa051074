package safesql

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/pthm/safesql/internal/guard"
	"github.com/pthm/safesql/internal/sqlgen"
	"github.com/pthm/safesql/pkg/query"
)

// HealthCheckSQL is the statement used by Status. Raw always permits it.
const HealthCheckSQL = "SELECT 1=1 AS status"

// Status values reported by StatusResult.
const (
	StatusOK  = "OK"
	StatusErr = "ERR"
)

// AllowList is the set of tables and raw statements a Client may use.
type AllowList = guard.AllowList

// Allow-list sentinels. All permits everything; Public permits every table
// outside pg_catalog and information_schema.
const (
	AllowAll    = guard.All
	AllowPublic = guard.Public
)

// ParseAllowList parses a comma-separated table list and a semicolon-separated
// raw statement list.
func ParseAllowList(tables, queries string) AllowList {
	return guard.ParseAllowList(tables, queries)
}

// Client builds statements from query descriptors, checks them against the
// allow-list and runs them through a Driver.
//
// A Client is immutable after New and safe for concurrent use. The only
// blocking call is the Driver's Execute.
type Client struct {
	driver              Driver
	allow               AllowList
	database            string
	logger              *slog.Logger
	debugSQL            bool
	debugRuntime        bool
	cache               Cache
	rawAccess           RawAccess
	useContextRawAccess bool
}

// Option configures a Client.
type Option func(*Client)

// WithAllowList replaces the default allow-list (every public table, no raw
// statements).
func WithAllowList(list AllowList) Option {
	return func(c *Client) {
		c.allow = list
	}
}

// WithDatabase names the database reported by Status.
func WithDatabase(name string) Option {
	return func(c *Client) {
		c.database = name
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDebugSQL logs every generated statement and attaches it to returned
// errors.
func WithDebugSQL() Option {
	return func(c *Client) {
		c.debugSQL = true
	}
}

// WithDebugRuntime logs each operation at debug level.
func WithDebugRuntime() Option {
	return func(c *Client) {
		c.debugRuntime = true
	}
}

// WithCache enables caching of Select and Count results. Custom Cache
// implementations must not hand out rows that a caller's edits could reach;
// CacheImpl copies them.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithRawAccess sets the client-level raw access decision.
func WithRawAccess(d RawAccess) Option {
	return func(c *Client) {
		c.rawAccess = d
	}
}

// WithContextRawAccess makes Raw consult GetRawAccessContext(ctx) first.
//
// Precedence when enabled:
//  1. Context decision (via WithRawAccessContext)
//  2. Client decision (via WithRawAccess)
//  3. Deny
func WithContextRawAccess() Option {
	return func(c *Client) {
		c.useContextRawAccess = true
	}
}

// New creates a Client that executes statements through d.
func New(d Driver, opts ...Option) *Client {
	c := &Client{
		driver: d,
		allow:  guard.ParseAllowList(guard.Public, ""),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AllowList returns the client's allow-list.
func (c *Client) AllowList() AllowList {
	return c.allow
}

// EditResult reports a successful INSERT, UPDATE or DELETE.
type EditResult struct {
	Status string `json:"status"`
	// RowsAffected is -1 when the driver cannot report it.
	RowsAffected int64 `json:"rowsAffected"`
}

// StatusResult is the outcome of a health probe.
type StatusResult struct {
	Database  string `json:"database"`
	Status    string `json:"status"`
	DebugInfo string `json:"debugInfo"`
}

// OK reports whether the probe succeeded.
func (s StatusResult) OK() bool {
	return s.Status == StatusOK
}

// Select runs a SELECT built from q.
func (c *Client) Select(ctx context.Context, q query.SelectQuery) ([]Row, error) {
	const source = "Select"
	c.trace(source)

	if err := guard.AssertAllowedTables(q.From, c.allow); err != nil {
		return nil, c.fail(source, "", err)
	}
	stmt, err := sqlgen.BuildSelect(q)
	if err != nil {
		return nil, c.fail(source, "", err)
	}
	return c.read(ctx, source, stmt)
}

// Count returns the number of rows matched by q, or -1 when the driver's
// answer cannot be read as a number.
func (c *Client) Count(ctx context.Context, q query.CountQuery) (int64, error) {
	const source = "Count"
	c.trace(source)

	if err := guard.AssertAllowedTables(q.From, c.allow); err != nil {
		return 0, c.fail(source, "", err)
	}
	stmt, err := sqlgen.BuildCount(q)
	if err != nil {
		return 0, c.fail(source, "", err)
	}
	rows, err := c.read(ctx, source, stmt)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return -1, nil
	}
	return parseCount(rows[0]["count"]), nil
}

// Insert runs an INSERT built from q.
func (c *Client) Insert(ctx context.Context, q query.InsertQuery) (*EditResult, error) {
	const source = "Insert"
	c.trace(source)

	if err := guard.AssertAllowedTable(q.Table, c.allow); err != nil {
		return nil, c.fail(source, "", err)
	}
	stmt, err := sqlgen.BuildInsert(q)
	if err != nil {
		return nil, c.fail(source, "", err)
	}
	return c.edit(ctx, source, "INSERT", stmt)
}

// Update runs an UPDATE built from q.
func (c *Client) Update(ctx context.Context, q query.UpdateQuery) (*EditResult, error) {
	const source = "Update"
	c.trace(source)

	if err := guard.AssertAllowedTable(q.Table, c.allow); err != nil {
		return nil, c.fail(source, "", err)
	}
	stmt, err := sqlgen.BuildUpdate(q)
	if err != nil {
		return nil, c.fail(source, "", err)
	}
	return c.edit(ctx, source, "UPDATE", stmt)
}

// Delete runs a DELETE built from q.
func (c *Client) Delete(ctx context.Context, q query.DeleteQuery) (*EditResult, error) {
	const source = "Delete"
	c.trace(source)

	if err := guard.AssertAllowedTable(q.Table, c.allow); err != nil {
		return nil, c.fail(source, "", err)
	}
	stmt, err := sqlgen.BuildDelete(q)
	if err != nil {
		return nil, c.fail(source, "", err)
	}
	return c.edit(ctx, source, "DELETE", stmt)
}

// Raw runs sql unchanged. It requires raw access and a matching entry in the
// query allow-list, except for HealthCheckSQL which is always permitted.
// Results are never cached, and any other successful statement clears the
// read cache.
func (c *Client) Raw(ctx context.Context, sql string) ([]Row, error) {
	const source = "Raw"
	c.trace(source)

	if sql != HealthCheckSQL {
		if !c.rawAllowed(ctx) {
			return nil, c.fail(source, sql, ErrRawDisabled)
		}
		if err := guard.AssertAllowedQuery(sql, c.allow); err != nil {
			return nil, c.fail(source, sql, err)
		}
	}

	res, err := c.execute(ctx, source, sql)
	if err != nil {
		return nil, err
	}
	// Raw text may write; drop cached reads.
	if sql != HealthCheckSQL && c.cache != nil {
		c.cache.Clear()
	}
	return res.Rows, nil
}

// Status probes the database with HealthCheckSQL. It never returns an error;
// failures are reported in DebugInfo.
func (c *Client) Status(ctx context.Context) StatusResult {
	c.trace("Status")

	res := StatusResult{Database: c.database, Status: StatusOK}
	if _, err := c.Raw(ctx, HealthCheckSQL); err != nil {
		res.Status = StatusErr
		res.DebugInfo = err.Error()
	}
	return res
}

// IsOK reports whether Status succeeds.
func (c *Client) IsOK(ctx context.Context) bool {
	return c.Status(ctx).OK()
}

// SelectAs runs q and decodes each row into T. Struct fields are matched by
// their `db` tag, falling back to a case-insensitive field name match.
func SelectAs[T any](ctx context.Context, c *Client, q query.SelectQuery) ([]T, error) {
	rows, err := c.Select(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(rows))
	for i, row := range rows {
		var v T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &v,
			TagName:          "db",
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		})
		if err != nil {
			return nil, c.fail("SelectAs", "", fmt.Errorf("%w: %w", ErrDecode, err))
		}
		if err := dec.Decode(map[string]any(row)); err != nil {
			return nil, c.fail("SelectAs", "", fmt.Errorf("%w: row %d: %w", ErrDecode, i, err))
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Client) rawAllowed(ctx context.Context) bool {
	if c.useContextRawAccess {
		switch GetRawAccessContext(ctx) {
		case RawAccessAllow:
			return true
		case RawAccessDeny:
			return false
		}
	}
	return c.rawAccess == RawAccessAllow
}

// read executes a read statement, consulting the cache first.
func (c *Client) read(ctx context.Context, source, stmt string) ([]Row, error) {
	if c.cache != nil {
		if rows, ok := c.cache.Get(stmt); ok {
			if c.debugRuntime {
				c.logger.Debug("safesql cache hit", "op", source)
			}
			return rows, nil
		}
	}

	res, err := c.execute(ctx, source, stmt)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(stmt, res.Rows)
	}
	return res.Rows, nil
}

// edit executes an INSERT, UPDATE or DELETE. Edits never return rows; a row
// set means the statement did something other than what was built.
func (c *Client) edit(ctx context.Context, source, verb, stmt string) (*EditResult, error) {
	res, err := c.execute(ctx, source, stmt)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) > 0 {
		c.logger.Warn("safesql edit returned rows", "op", source, "rows", len(res.Rows))
		return nil, c.fail(source, stmt, fmt.Errorf("%w: %s operation failed", ErrAnomalousResult, verb))
	}
	if c.cache != nil {
		c.cache.Clear()
	}
	return &EditResult{Status: StatusOK, RowsAffected: res.RowsAffected}, nil
}

func (c *Client) execute(ctx context.Context, source, stmt string) (*Result, error) {
	if c.debugSQL {
		c.logger.Info("safesql statement", "op", source, "sql", stmt)
	}
	res, err := c.driver.Execute(ctx, stmt)
	if err != nil {
		return nil, c.fail(source, stmt, err)
	}
	if res == nil {
		res = &Result{RowsAffected: -1}
	}
	return res, nil
}

func (c *Client) fail(source, stmt string, err error) *Error {
	e := newError(source, err)
	if c.debugSQL && e.SQL == "" {
		e.SQL = stmt
	}
	if c.debugRuntime {
		c.logger.Debug("safesql operation failed", "op", source, "code", e.Code, "error", e.Message)
	}
	return e
}

func (c *Client) trace(source string) {
	if c.debugRuntime {
		c.logger.Debug("safesql operation invoked", "op", source)
	}
}

// parseCount reads a count(*) value as returned by pgx (int64) or by
// drivers that report numerics as text.
func parseCount(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i
		}
	}
	return -1
}
