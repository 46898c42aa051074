// Package safesql turns structured query descriptors into quoted PostgreSQL
// statements and runs them through a pluggable driver.
//
// # Descriptors
//
// Queries are described with the types in pkg/query, either built in Go or
// decoded from JSON:
//
//	q := query.SelectQuery{
//		Columns: query.Cols("id", "title"),
//		From:    query.Tables("posts"),
//		Where:   query.Conditions{query.Where("id", query.OpGt, "10")},
//		Limit:   20,
//	}
//
// Every identifier is quoted, every literal is escaped, and every operator,
// relation, join type and sort direction is checked against a closed set
// before a statement is assembled. Values containing statement separators,
// comment markers, '=' or control characters are rejected outright.
//
// # Basic Usage
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	client := safesql.New(safesql.NewPgxDriver(pool),
//		safesql.WithAllowList(safesql.ParseAllowList("posts,users", "")),
//	)
//	rows, err := client.Select(ctx, q)
//
// database/sql handles work through NewSQLDriver.
//
// # Allow-lists
//
// Tables must appear in the client's allow-list. AllowPublic (the default)
// admits everything outside pg_catalog and information_schema; AllowAll
// admits everything. Raw statements are disabled unless granted with
// WithRawAccess and must match an allowed statement exactly.
//
// # Errors
//
// Every error is an *Error carrying an HTTP-style status code. Use the
// Is*Err helpers or errors.Is with the package sentinels to branch on the
// cause.
package safesql
