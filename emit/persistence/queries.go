package persistence

import (
	"fmt"
	"strings"

	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/js"
	"github.com/teranos/buildamp/model"
)

// tenantColumn scopes every query to the requesting host.
const tenantColumn = "host"

// queries renders the createDbQueries factory. Only Primary models are tables.
func queries(models []model.Classified) []byte {
	var body []js.Stmt
	var exported []js.Prop

	for _, m := range model.Primaries(models) {
		stmts, names := tableFunctions(m)
		if len(body) > 0 {
			body = append(body, js.Blank{})
		}
		body = append(body, js.LineComment{Text: m.Name + " (" + emit.TableName(m.Name) + ")"})
		for i, s := range stmts {
			if i > 0 {
				body = append(body, js.Blank{})
			}
			body = append(body, s)
		}
		for _, n := range names {
			exported = append(exported, js.Prop{Key: n})
		}
	}
	if len(body) > 0 {
		body = append(body, js.Blank{})
	}
	body = append(body, js.Return{Value: js.Object{Props: exported}})

	return js.Format(js.File{
		Header: []string{
			"Host-scoped database queries",
			"",
			emit.GeneratedNotice,
		},
		Body: []js.Node{js.Func{
			Export:  true,
			Default: true,
			Name:    "createDbQueries",
			Params:  []string{"pool"},
			Body:    body,
		}},
	})
}

// insertColumns are the columns a caller supplies on insert.
func insertColumns(m model.Classified) []string {
	var cols []string
	for _, f := range m.Fields {
		if Writable(f) && f.Name != tenantColumn {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

func tableFunctions(m model.Classified) ([]js.Stmt, []string) {
	name := m.Name
	table := emit.TableName(name)
	param := emit.LowerFirst(name)
	cols := insertColumns(m)

	insertCols := append(append([]string(nil), cols...), tenantColumn)
	placeholders := make([]string, 0, len(insertCols))
	values := []js.Expr{js.Code("host")}
	for i, c := range cols {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		values = append(values, js.Code(param+"."+c))
	}
	placeholders = append(placeholders, "$1")

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(insertCols, ", "), strings.Join(placeholders, ", "))
	listSQL := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 ORDER BY created_at DESC", table, tenantColumn)
	byIDSQL := fmt.Sprintf("SELECT * FROM %s WHERE id = $1 AND %s = $2", table, tenantColumn)
	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND %s = $2 RETURNING id", table, tenantColumn)

	setSuffix := ""
	if _, ok := m.Field("updated_at"); ok {
		setSuffix = ", updated_at = NOW()"
	}

	updatable := make([]js.Expr, 0, len(cols))
	for _, c := range cols {
		updatable = append(updatable, js.Str(c))
	}

	query := func(sql string, args ...js.Expr) js.Stmt {
		return js.Var{Name: "result", Value: js.Call("await pool.query", js.Str(sql), js.Array{Items: args})}
	}
	fn := func(fname string, params []string, body ...js.Stmt) js.Stmt {
		return js.Var{Name: fname, Value: js.Arrow{Async: true, Params: params, Body: body}}
	}

	names := []string{
		"insert" + name,
		"get" + name + "sByHost",
		"get" + name + "ById",
		"update" + name,
		"delete" + name,
	}

	stmts := []js.Stmt{
		fn(names[0], []string{param, "host"},
			query(insertSQL, values...),
			js.Return{Value: js.Code("result.rows[0]")},
		),
		fn(names[1], []string{"host"},
			query(listSQL, js.Code("host")),
			js.Return{Value: js.Code("result.rows")},
		),
		fn(names[2], []string{"id", "host"},
			query(byIDSQL, js.Code("id"), js.Code("host")),
			js.Return{Value: js.Code("result.rows[0] || null")},
		),
		fn(names[3], []string{"id", "updates", "host"},
			js.Var{Name: "columns", Value: js.Array{Items: updatable}},
			js.Var{Name: "fields", Value: js.Code("Object.keys(updates).filter((key) => columns.includes(key))")},
			js.If{Cond: "fields.length === 0", Then: []js.Stmt{
				js.Return{Value: js.Code(names[2] + "(id, host)")},
			}},
			js.Var{Name: "setClause", Value: js.Code("fields.map((field, i) => field + ' = $' + (i + 3)).join(', ')")},
			js.Var{Name: "sql", Value: js.Code(
				js.Quote("UPDATE "+table+" SET ") + " + setClause + " +
					js.Quote(setSuffix+" WHERE id = $1 AND "+tenantColumn+" = $2 RETURNING *"))},
			js.Var{Name: "result", Value: js.Code("await pool.query(sql, [id, host, ...fields.map((field) => updates[field])])")},
			js.Return{Value: js.Code("result.rows[0] || null")},
		),
		fn(names[4], []string{"id", "host"},
			query(deleteSQL, js.Code("id"), js.Code("host")),
			js.Return{Value: js.Code("result.rows.length > 0")},
		),
	}
	return stmts, names
}
