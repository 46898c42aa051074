// Package query defines the descriptors callers use to describe a statement.
//
// Descriptors are plain data. A SelectQuery names its columns, its FROM list
// and optional WHERE, GROUP BY, HAVING, ORDER BY and LIMIT parts; the
// statement builder validates every token and identifier before rendering.
//
// Fields that accept several shapes are modelled as small sealed interfaces:
//
//	Column    ColumnName | Star | CountOf | AliasedColumn
//	TableRef  TableName | TableSpec
//	Operand   Literal | any Column
//
// Every descriptor also decodes from JSON, where a single value may be given
// in place of a one-element array:
//
//	{
//	  "columns": ["id", {"alias": "p", "name": "title"}],
//	  "from": [
//	    {"table": "posts", "alias": "p"},
//	    {"table": "users", "alias": "u", "joinColumn1": "p.user_id", "joinColumn2": "u.id"}
//	  ],
//	  "where": {"column": "p.id", "operator": "IN", "value": "1,2,3"},
//	  "order": {"column": "p.id", "direction": "DESC"},
//	  "limit": 10
//	}
package query
