// Package sqlgen renders query descriptors into PostgreSQL statements.
//
// The clause builders (ColumnsClause, TableClause, WhereClause, HavingClause,
// GroupByClause, OrderClause, LimitClause) each render one fragment with no
// knowledge of the surrounding statement. Optional fragments carry their
// leading space and render as the empty string when there is nothing to emit.
//
// The statement builders (BuildSelect, BuildCount, BuildInsert, BuildUpdate,
// BuildDelete) validate a whole descriptor and assemble the fragments through
// the sqldsl statement nodes.
//
// Every token is checked by the guard package before it is rendered and
// every user-supplied name or value is quoted. Nothing here touches a
// database; allow-list checks are left to the caller.
package sqlgen
