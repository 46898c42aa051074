// Package doctor provides health checks for a safesql deployment.
//
// The doctor command validates that the database is reachable, that the
// allow-lists are sensible and name existing tables, and that every allowed
// raw statement parses as a single PostgreSQL statement.
//
// Example usage:
//
//	d := doctor.New(driver, cfg.AllowList(), cfg.ExposeRaw)
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pthm/safesql"
	"github.com/pthm/safesql/internal/guard"
	"github.com/pthm/safesql/internal/sqlcheck"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Connection", "Allow-list").
	Category string

	// Name is a short identifier for the check.
	Name string

	Status  Status
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Find returns the check with the given category and name.
func (r *Report) Find(category, name string) (CheckResult, bool) {
	for _, c := range r.Checks {
		if c.Category == category && c.Name == name {
			return c, true
		}
	}
	return CheckResult{}, false
}

// Print writes the report to the given writer.
func (r *Report) Print(w io.Writer, verbose bool) {
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Check categories.
const (
	categoryConnection = "Connection"
	categoryAllowList  = "Allow-list"
	categoryRaw        = "Raw Access"
)

// userTablesSQL lists every table and view outside the system schemas.
// Columns are cast because information_schema uses the sql_identifier domain.
const userTablesSQL = `SELECT table_schema::text AS table_schema, table_name::text AS table_name ` +
	`FROM information_schema.tables ` +
	`WHERE table_schema NOT IN ('pg_catalog', 'information_schema')`

// Doctor performs health checks on a safesql configuration.
type Doctor struct {
	driver    safesql.Driver
	allow     safesql.AllowList
	exposeRaw bool

	// populated during Run
	connected bool
}

// New creates a new Doctor. A nil driver reports the connection as failed
// and skips the checks that need a database.
func New(driver safesql.Driver, allow safesql.AllowList, exposeRaw bool) *Doctor {
	return &Doctor{
		driver:    driver,
		allow:     allow,
		exposeRaw: exposeRaw,
	}
}

// Run executes all health checks and returns a report.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	d.checkConnection(ctx, report)
	d.checkTableMode(report)
	if err := d.checkTablesExist(ctx, report); err != nil {
		return nil, fmt.Errorf("checking allowed tables: %w", err)
	}
	d.checkRawExposure(report)
	d.checkRawQueries(report)

	return report, nil
}

func (d *Doctor) checkConnection(ctx context.Context, report *Report) {
	if d.driver == nil {
		report.AddCheck(CheckResult{
			Category: categoryConnection,
			Name:     "probe",
			Status:   StatusFail,
			Message:  "No database connection",
			FixHint:  "Set database.url or database.host/name/user in safesql.yaml",
		})
		return
	}

	status := safesql.New(d.driver).Status(ctx)
	if !status.OK() {
		report.AddCheck(CheckResult{
			Category: categoryConnection,
			Name:     "probe",
			Status:   StatusFail,
			Message:  "Health check query failed",
			Details:  status.DebugInfo,
			FixHint:  "Verify the connection settings and that the database is running",
		})
		return
	}

	d.connected = true
	report.AddCheck(CheckResult{
		Category: categoryConnection,
		Name:     "probe",
		Status:   StatusPass,
		Message:  "Database responds to health check",
	})
}

func (d *Doctor) checkTableMode(report *Report) {
	switch {
	case d.allow.AllTables():
		report.AddCheck(CheckResult{
			Category: categoryAllowList,
			Name:     "mode",
			Status:   StatusWarn,
			Message:  "All tables are allowed, including system catalogs",
			FixHint:  "Set allowed_tables to PUBLIC or an explicit list",
		})
	case d.allow.PublicTables():
		report.AddCheck(CheckResult{
			Category: categoryAllowList,
			Name:     "mode",
			Status:   StatusPass,
			Message:  "Public tables are allowed; system catalogs are blocked",
		})
	case len(d.allow.Tables) == 0:
		report.AddCheck(CheckResult{
			Category: categoryAllowList,
			Name:     "mode",
			Status:   StatusWarn,
			Message:  "No tables are allowed; every query will be rejected",
			FixHint:  "Set allowed_tables to PUBLIC or a comma-separated list",
		})
	default:
		report.AddCheck(CheckResult{
			Category: categoryAllowList,
			Name:     "mode",
			Status:   StatusPass,
			Message:  fmt.Sprintf("%d tables explicitly allowed", len(explicitTables(d.allow))),
		})
	}

	var system []string
	for _, t := range explicitTables(d.allow) {
		if guard.IsSystemTable(t) {
			system = append(system, t)
		}
	}
	if len(system) > 0 {
		report.AddCheck(CheckResult{
			Category: categoryAllowList,
			Name:     "system_tables",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d system tables explicitly allowed", len(system)),
			Details:  strings.Join(system, "\n"),
			FixHint:  "Remove pg_* and information_schema entries unless clients need them",
		})
	}
}

func (d *Doctor) checkTablesExist(ctx context.Context, report *Report) error {
	listed := explicitTables(d.allow)
	if len(listed) == 0 || !d.connected {
		return nil
	}

	res, err := d.driver.Execute(ctx, userTablesSQL)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(res.Rows)*2)
	for _, row := range res.Rows {
		schema, _ := row["table_schema"].(string)
		table, _ := row["table_name"].(string)
		existing[schema+"."+table] = true
		// unqualified names resolve through search_path, public by default
		if schema == "public" {
			existing[table] = true
		}
	}

	var missing []string
	for _, t := range listed {
		if !existing[t] && !guard.IsSystemTable(t) {
			missing = append(missing, t)
		}
	}
	sort.Strings(missing)

	if len(missing) > 0 {
		report.AddCheck(CheckResult{
			Category: categoryAllowList,
			Name:     "tables_exist",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d allowed tables do not exist", len(missing)),
			Details:  strings.Join(missing, "\n"),
			FixHint:  "Fix the table names in allowed_tables or qualify them with their schema",
		})
		return nil
	}

	report.AddCheck(CheckResult{
		Category: categoryAllowList,
		Name:     "tables_exist",
		Status:   StatusPass,
		Message:  "All allowed tables exist",
	})
	return nil
}

func (d *Doctor) checkRawExposure(report *Report) {
	switch {
	case !d.exposeRaw:
		report.AddCheck(CheckResult{
			Category: categoryRaw,
			Name:     "exposure",
			Status:   StatusPass,
			Message:  "Raw statements are disabled",
		})
	case d.allow.AllQueries():
		report.AddCheck(CheckResult{
			Category: categoryRaw,
			Name:     "exposure",
			Status:   StatusFail,
			Message:  "Raw statements are enabled and any statement is allowed",
			FixHint:  "List the permitted statements in allowed_queries or disable expose_raw",
		})
	case len(d.allow.Queries) == 0:
		report.AddCheck(CheckResult{
			Category: categoryRaw,
			Name:     "exposure",
			Status:   StatusWarn,
			Message:  "Raw statements are enabled but none are allowed",
			FixHint:  "Disable expose_raw or list statements in allowed_queries",
		})
	default:
		report.AddCheck(CheckResult{
			Category: categoryRaw,
			Name:     "exposure",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("Raw statements are enabled for %d allowed statements", len(d.allow.Queries)),
		})
	}
}

func (d *Doctor) checkRawQueries(report *Report) {
	if d.allow.AllQueries() || len(d.allow.Queries) == 0 {
		return
	}

	var invalid, writes, duplicates []string
	seen := make(map[string]string)
	for _, q := range d.allow.Queries {
		kind, err := sqlcheck.Statement(q)
		if err != nil {
			invalid = append(invalid, fmt.Sprintf("%s: %v", q, err))
			continue
		}
		if !kind.ReadOnly() {
			writes = append(writes, fmt.Sprintf("%s (%s)", q, kind))
		}
		if fp, err := sqlcheck.Fingerprint(q); err == nil {
			if first, ok := seen[fp]; ok {
				duplicates = append(duplicates, fmt.Sprintf("%s ~ %s", q, first))
			} else {
				seen[fp] = q
			}
		}
	}

	if len(invalid) > 0 {
		report.AddCheck(CheckResult{
			Category: categoryRaw,
			Name:     "queries_parse",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d allowed statements are not valid single statements", len(invalid)),
			Details:  strings.Join(invalid, "\n"),
			FixHint:  "Separate statements with ';' in allowed_queries and fix syntax errors",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: categoryRaw,
			Name:     "queries_parse",
			Status:   StatusPass,
			Message:  "All allowed statements parse",
		})
	}

	if len(writes) > 0 {
		report.AddCheck(CheckResult{
			Category: categoryRaw,
			Name:     "queries_readonly",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d allowed statements modify data", len(writes)),
			Details:  strings.Join(writes, "\n"),
		})
	}

	// Raw matching compares exact text.
	if len(duplicates) > 0 {
		report.AddCheck(CheckResult{
			Category: categoryRaw,
			Name:     "queries_duplicate",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d allowed statements differ from another only in literals or spacing", len(duplicates)),
			Details:  strings.Join(duplicates, "\n"),
			FixHint:  "Only the exact listed text is accepted; keep the variant clients send",
		})
	}
}

// explicitTables returns the allow-list entries other than the sentinels.
func explicitTables(list safesql.AllowList) []string {
	var out []string
	for _, t := range list.Tables {
		if !guard.IsSentinel(t) {
			out = append(out, t)
		}
	}
	return out
}
