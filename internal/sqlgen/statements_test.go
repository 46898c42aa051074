package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/safesql/internal/guard"
	"github.com/pthm/safesql/pkg/query"
)

const table = "playing_with_neon"

func TestBuildSelect(t *testing.T) {
	aliased := query.TableList{query.TableSpec{Table: table, Alias: "p"}}

	tests := []struct {
		name string
		q    query.SelectQuery
		want string
	}{
		{
			name: "single column",
			q:    query.SelectQuery{Columns: query.Cols("id"), From: query.Tables("t")},
			want: `SELECT "id" FROM "t"`,
		},
		{
			name: "where",
			q: query.SelectQuery{
				Columns: query.Cols("id"),
				From:    query.Tables("t"),
				Where:   query.Conditions{query.Where("id", query.OpEq, "1")},
			},
			want: `SELECT "id" FROM "t" WHERE "id" = '1'`,
		},
		{
			name: "in",
			q: query.SelectQuery{
				Columns: query.Cols("id"),
				From:    query.Tables("t"),
				Where:   query.Conditions{query.Where("id", query.OpIn, "1,2,3")},
			},
			want: `SELECT "id" FROM "t" WHERE "id" IN ('1', '2', '3')`,
		},
		{
			name: "several columns",
			q:    query.SelectQuery{Columns: query.Cols("id", "name"), From: query.Tables(table)},
			want: `SELECT "id", "name" FROM "playing_with_neon"`,
		},
		{
			name: "star",
			q:    query.SelectQuery{Columns: query.Cols("*"), From: query.Tables(table)},
			want: `SELECT * FROM "playing_with_neon"`,
		},
		{
			name: "several tables",
			q:    query.SelectQuery{Columns: query.Cols("id"), From: query.Tables(table, table+"_2")},
			want: `SELECT "id" FROM "playing_with_neon", "playing_with_neon_2"`,
		},
		{
			name: "aliased table",
			q:    query.SelectQuery{Columns: query.ColumnList{query.ColAs("p", "id")}, From: aliased},
			want: `SELECT "p"."id" FROM "playing_with_neon" "p"`,
		},
		{
			name: "aliased table with schema",
			q: query.SelectQuery{
				Columns: query.ColumnList{query.ColAs("p", "id")},
				From:    query.TableList{query.TableSpec{Schema: "neon2", Table: table, Alias: "p"}},
			},
			want: `SELECT "p"."id" FROM "neon2"."playing_with_neon" "p"`,
		},
		{
			name: "compare two tables",
			q: query.SelectQuery{
				Columns: query.ColumnList{query.ColAs("p", "id")},
				From: query.TableList{
					query.TableSpec{Table: table, Alias: "p"},
					query.TableSpec{Table: table + "_2", Alias: "p2"},
				},
				Where: query.Conditions{{Column: query.ColAs("p", "id"), Operator: query.OpEq, Value: query.ColAs("p2", "id")}},
			},
			want: `SELECT "p"."id" FROM "playing_with_neon" "p", "playing_with_neon_2" "p2" WHERE "p"."id" = "p2"."id"`,
		},
		{
			name: "group by with count",
			q: query.SelectQuery{
				Columns: query.Cols("id", "count(id)"),
				From:    query.Tables(table),
				Group:   query.Cols("id"),
			},
			want: `SELECT "id", count("id") FROM "playing_with_neon" GROUP BY "id"`,
		},
		{
			name: "group by and having",
			q: query.SelectQuery{
				Columns: query.Cols("id", "value"),
				From:    query.Tables(table),
				Group:   query.Cols("id", "value"),
				Having:  query.Conditions{query.Where("value", query.OpGt, "0.5")},
			},
			want: `SELECT "id", "value" FROM "playing_with_neon" GROUP BY "id", "value" HAVING "value" > '0.5'`,
		},
		{
			name: "limit",
			q:    query.SelectQuery{Columns: query.Cols("id"), From: query.Tables(table), Limit: 5},
			want: `SELECT "id" FROM "playing_with_neon" LIMIT 5`,
		},
		{
			name: "empty clause lists",
			q: query.SelectQuery{
				Columns: query.Cols("id"),
				From:    query.Tables(table),
				Where:   query.Conditions{},
				Order:   query.OrderList{},
				Group:   query.ColumnList{},
				Having:  query.Conditions{},
			},
			want: `SELECT "id" FROM "playing_with_neon"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildSelect(tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildSelect_OmitsEmptyClauses(t *testing.T) {
	got, err := BuildSelect(query.SelectQuery{
		Columns: query.Cols("id"),
		From:    query.Tables("t"),
		Where:   query.Conditions{},
		Order:   query.OrderList{},
		Group:   query.ColumnList{},
		Having:  query.Conditions{},
	})
	require.NoError(t, err)
	for _, kw := range []string{"WHERE", "ORDER BY", "GROUP BY", "HAVING", "LIMIT"} {
		assert.NotContains(t, got, kw)
	}
}

func TestBuildSelect_Errors(t *testing.T) {
	_, err := BuildSelect(query.SelectQuery{From: query.Tables("t")})
	assert.ErrorIs(t, err, ErrStructure)

	_, err = BuildSelect(query.SelectQuery{Columns: query.Cols("id")})
	assert.ErrorIs(t, err, ErrStructure)

	_, err = BuildSelect(query.SelectQuery{
		Columns: query.Cols("id"),
		From:    query.Tables("t"),
		Having:  query.Conditions{query.Where("id", "EXISTS", "1")},
	})
	assert.ErrorIs(t, err, guard.ErrInvalidToken)
}

func TestBuildCount(t *testing.T) {
	got, err := BuildCount(query.CountQuery{From: query.Tables(table)})
	require.NoError(t, err)
	assert.Equal(t, `SELECT count(*) FROM "playing_with_neon"`, got)

	got, err = BuildCount(query.CountQuery{
		From:  query.Tables(table),
		Where: query.Conditions{query.Where("name", query.OpLike, "%x%")},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT count(*) FROM "playing_with_neon" WHERE "name" LIKE '%x%'`, got)
}

func TestBuildInsert(t *testing.T) {
	tests := []struct {
		name string
		q    query.InsertQuery
		want string
	}{
		{
			name: "single row",
			q:    query.InsertQuery{Table: query.TableName("t"), Values: query.Records{{{Column: "id", Value: "1"}}}},
			want: `INSERT INTO "t" ("id") VALUES ('1')`,
		},
		{
			name: "several rows reordered",
			q: query.InsertQuery{
				Table: query.TableName(table),
				Values: query.Records{
					{{Column: "name", Value: "a"}, {Column: "value", Value: "0.5"}},
					{{Column: "value", Value: "1"}, {Column: "name", Value: "it's"}},
				},
			},
			want: `INSERT INTO "playing_with_neon" ("name", "value") VALUES ('a', '0.5'), ('it''s', '1')`,
		},
		{
			name: "schema",
			q: query.InsertQuery{
				Table:  query.TableSpec{Schema: "neon2", Table: table},
				Values: query.Records{{{Column: "id", Value: "1"}}},
			},
			want: `INSERT INTO "neon2"."playing_with_neon" ("id") VALUES ('1')`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildInsert(tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildInsert_Errors(t *testing.T) {
	row := query.Record{{Column: "id", Value: "1"}}

	tests := []struct {
		name    string
		q       query.InsertQuery
		wantErr error
	}{
		{name: "alias", q: query.InsertQuery{Table: query.TableSpec{Table: "t", Alias: "p"}, Values: query.Records{row}}, wantErr: ErrStructure},
		{name: "no rows", q: query.InsertQuery{Table: query.TableName("t")}, wantErr: ErrStructure},
		{name: "empty row", q: query.InsertQuery{Table: query.TableName("t"), Values: query.Records{{}}}, wantErr: ErrStructure},
		{
			name: "extra column",
			q: query.InsertQuery{Table: query.TableName("t"), Values: query.Records{
				row, {{Column: "id", Value: "2"}, {Column: "name", Value: "x"}},
			}},
			wantErr: ErrStructure,
		},
		{
			name: "different column",
			q: query.InsertQuery{Table: query.TableName("t"), Values: query.Records{
				row, {{Column: "name", Value: "x"}},
			}},
			wantErr: ErrStructure,
		},
		{
			name: "duplicate column",
			q: query.InsertQuery{Table: query.TableName("t"), Values: query.Records{
				{{Column: "id", Value: "1"}, {Column: "id", Value: "2"}},
			}},
			wantErr: ErrStructure,
		},
		{
			name:    "qualified column",
			q:       query.InsertQuery{Table: query.TableName("t"), Values: query.Records{{{Column: "t.id", Value: "1"}}}},
			wantErr: guard.ErrUnsafeInput,
		},
		{
			name:    "unsafe value",
			q:       query.InsertQuery{Table: query.TableName("t"), Values: query.Records{{{Column: "id", Value: "1); DROP TABLE t"}}}},
			wantErr: guard.ErrUnsafeInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildInsert(tt.q)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuildInsert_AliasMessage(t *testing.T) {
	_, err := BuildInsert(query.InsertQuery{
		Table:  query.TableSpec{Table: "t", Alias: "p"},
		Values: query.Records{{{Column: "id", Value: "1"}}},
	})
	assert.EqualError(t, err, "safesql: INSERT: table alias is not allowed")
}

func TestBuildUpdate(t *testing.T) {
	tests := []struct {
		name string
		q    query.UpdateQuery
		want string
	}{
		{
			name: "aliased",
			q: query.UpdateQuery{
				Table:  query.TableSpec{Table: "t", Alias: "p"},
				Values: query.Record{{Column: "id", Value: "1"}},
			},
			want: `UPDATE "t" AS "p" SET "id" = '1'`,
		},
		{
			name: "several columns with where",
			q: query.UpdateQuery{
				Table:  query.TableName(table),
				Values: query.Record{{Column: "id", Value: "1"}, {Column: "name", Value: "test"}},
				Where:  query.Conditions{query.Where("id", query.OpEq, "1")},
			},
			want: `UPDATE "playing_with_neon" SET "id" = '1', "name" = 'test' WHERE "id" = '1'`,
		},
		{
			name: "schema and alias",
			q: query.UpdateQuery{
				Table:  query.TableSpec{Schema: "neon2", Table: table, Alias: "p"},
				Values: query.Record{{Column: "name", Value: "x"}},
				Where:  query.Conditions{query.Where("p.id", query.OpEq, "1")},
			},
			want: `UPDATE "neon2"."playing_with_neon" AS "p" SET "name" = 'x' WHERE "p"."id" = '1'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildUpdate(tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := BuildUpdate(query.UpdateQuery{Table: query.TableName("t")})
	assert.ErrorIs(t, err, ErrStructure)

	_, err = BuildUpdate(query.UpdateQuery{
		Table:  query.TableName("t"),
		Values: query.Record{{Column: "id", Value: "1"}, {Column: "id", Value: "2"}},
	})
	assert.ErrorIs(t, err, ErrStructure)
}

func TestBuildDelete(t *testing.T) {
	got, err := BuildDelete(query.DeleteQuery{
		Table: query.TableName(table),
		Where: query.Conditions{query.Where("id", query.OpEq, "1")},
	})
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "playing_with_neon" WHERE "id" = '1'`, got)

	got, err = BuildDelete(query.DeleteQuery{Table: query.TableName(table)})
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "playing_with_neon"`, got)

	_, err = BuildDelete(query.DeleteQuery{Table: query.TableName("t"), Where: query.Conditions{query.Where("id", query.OpEq, "1=1")}})
	assert.ErrorIs(t, err, guard.ErrUnsafeInput)
}
