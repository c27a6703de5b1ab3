// Package persistence emits the database capability: the Generated.Database
// port module and the host-scoped SQL query helpers.
package persistence

import (
	"strings"

	"github.com/teranos/buildamp/elm"
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/registry"
	"github.com/teranos/buildamp/typemap"
)

const (
	// Domain is the model directory this emitter reads
	Domain = "db"
	// ElmPath is the port module, relative to the Elm root
	ElmPath = "Generated/Database.elm"
	// JSPath is the query helper module, relative to the JS root
	JSPath = "database-queries.js"
	// Suffix is appended to every model type in this domain
	Suffix = "Db"
)

// Generate renders Database.elm and database-queries.js for the db domain.
func Generate(models []model.Classified) *emit.Result {
	models = emit.Unique(models)
	mapper := typemap.New(registry.Build(Domain, models), typemap.WithSuffix(Suffix))

	res := &emit.Result{Models: len(models)}
	res.Add(
		emit.File{
			Location: emit.Location{Root: emit.RootElm, Path: ElmPath},
			Content:  elm.Format(databaseModule(mapper, models)),
		},
		emit.File{
			Location: emit.Location{Root: emit.RootJS, Path: JSPath},
			Content:  queries(models),
		},
	)
	res.Diagnostics = mapper.Diagnostics()
	return res
}

// Writable reports whether a field can be set on create or update.
// Ids and timestamps belong to the store.
func Writable(f model.Field) bool {
	return f.Name != "id" && f.Name != "timestamp" && !typemap.IsTimestamp(f.Type)
}

func databaseModule(mapper *typemap.Mapper, models []model.Classified) elm.Module {
	decls := framework()
	decls = append(decls, elm.Section{Title: "MODELS"})
	for _, m := range models {
		decls = append(decls, modelDecls(mapper, m)...)
	}
	decls = append(decls, elm.Section{Title: "HELPERS"})
	decls = append(decls, emit.EncodeHelpers()...)
	decls = append(decls, emit.DecodeHelpers()...)
	decls = append(decls, emit.HashHelper(), queryToString())

	return elm.Module{
		Name:    "Generated.Database",
		Port:    true,
		Doc:     "Database capability for handlers.\n\nQueries are built with queryAll and the builders below and run through\nports, so every operation is host-isolated by the runtime.\n\n" + emit.GeneratedNotice,
		Imports: emit.JSONImports(),
		Decls:   decls,
	}
}

func modelDecls(mapper *typemap.Mapper, m model.Classified) []elm.Decl {
	typeName := m.Name + Suffix
	fields := emit.MapFields(mapper, m.Name, m.Fields)

	if !m.IsPrimary() {
		return []elm.Decl{
			elm.Section{Title: strings.ToUpper(m.Name) + " COMPONENT (" + emit.SourceName(m) + ")"},
			emit.RecordAlias(typeName, "Component of "+m.Name+" records", fields, true),
			emit.RecordDecoder(typeName, fields),
			emit.RecordEncoder(typeName, fields),
		}
	}

	var create, update []emit.MappedField
	for _, f := range fields {
		if !Writable(f.Field) {
			continue
		}
		update = append(update, f)
		if !f.Optional {
			create = append(create, f)
		}
	}

	updateShape := make([]emit.MappedField, len(update))
	for i, f := range update {
		if !f.Optional {
			f.Mapped.Target = "Maybe " + typemap.Paren(f.Mapped.Target)
			f.Mapped.Encoder = "(encodeMaybe " + f.Mapped.Encoder + ")"
		}
		updateShape[i] = f
	}

	table := emit.TableName(m.Name)
	decls := []elm.Decl{
		elm.Section{Title: strings.ToUpper(m.Name) + " (" + emit.SourceName(m) + ")"},
		emit.RecordAlias(typeName, "Stored "+m.Name+" row", fields, true),
		emit.RecordAlias(typeName+"Create", "Fields required to create a "+m.Name, create, false),
		emit.RecordAlias(typeName+"Update", "Partial update of a "+m.Name+"; Nothing leaves a field unchanged", updateShape, false),
	}
	decls = append(decls, operations(m.Name, table)...)
	decls = append(decls,
		emit.RecordDecoder(typeName, fields),
		emit.RecordEncoder(typeName, fields),
		emit.RecordEncoder(typeName+"Create", create),
		emit.RecordEncoder(typeName+"Update", updateShape),
	)
	return decls
}

// operations are the find/create/update/kill stubs over one table.
func operations(name, table string) []elm.Decl {
	typeName := name + Suffix
	requestID := func(op string, rest elm.Expr) elm.Assign {
		return elm.Assign{Name: "requestId", Value: elm.Op{Left: elm.Str(op + "_" + table + "_"), Op: "++", Right: rest}}
	}
	hashed := func(e elm.Expr) elm.Expr {
		return elm.Call("String.fromInt", elm.Call("abs", elm.Call("hashString", e)))
	}

	return []elm.Decl{
		elm.Func{
			Doc:    "Find " + name + " rows matching a query",
			Name:   "find" + name + "s",
			Type:   "Query " + typeName + " -> Cmd msg",
			Params: []string{"query"},
			Body: elm.Let{
				Bindings: []elm.Assign{requestID("find", hashed(elm.Call("toString", elm.Ref("query"))))},
				In: elm.Call("dbFind", elm.Record{Fields: []elm.Assign{
					{Name: "id", Value: elm.Ref("requestId")},
					{Name: "table", Value: elm.Str(table)},
					{Name: "query", Value: elm.Call("encodeQuery", elm.Ref("query"))},
				}}),
			},
		},
		elm.Func{
			Name:   "create" + name,
			Type:   typeName + "Create -> (Result String " + typeName + " -> msg) -> Cmd msg",
			Params: []string{"data", "toMsg"},
			Body: elm.Let{
				Bindings: []elm.Assign{requestID("create", hashed(elm.Call("Encode.encode", elm.Int(0), elm.Call(emit.EncoderName(typeName+"Create"), elm.Ref("data")))))},
				In: elm.Call("dbCreate", elm.Record{Fields: []elm.Assign{
					{Name: "id", Value: elm.Ref("requestId")},
					{Name: "table", Value: elm.Str(table)},
					{Name: "data", Value: elm.Call(emit.EncoderName(typeName+"Create"), elm.Ref("data"))},
				}}),
			},
		},
		elm.Func{
			Name:   "update" + name,
			Type:   "String -> " + typeName + "Update -> (Result String " + typeName + " -> msg) -> Cmd msg",
			Params: []string{"id", "data", "toMsg"},
			Body: elm.Let{
				Bindings: []elm.Assign{requestID("update", elm.Ref("id"))},
				In: elm.Call("dbUpdate", elm.Record{Fields: []elm.Assign{
					{Name: "id", Value: elm.Ref("requestId")},
					{Name: "table", Value: elm.Str(table)},
					{Name: "data", Value: elm.Call(emit.EncoderName(typeName+"Update"), elm.Ref("data"))},
					{Name: "whereClause", Value: elm.Str("id = $1")},
					{Name: "params", Value: elm.List{Items: []elm.Expr{elm.Ref("id")}}},
				}}),
			},
		},
		elm.Func{
			Name:   "kill" + name,
			Type:   "String -> (Result String Int -> msg) -> Cmd msg",
			Params: []string{"id", "toMsg"},
			Body: elm.Let{
				Bindings: []elm.Assign{requestID("kill", elm.Ref("id"))},
				In: elm.Call("dbKill", elm.Record{Fields: []elm.Assign{
					{Name: "id", Value: elm.Ref("requestId")},
					{Name: "table", Value: elm.Str(table)},
					{Name: "whereClause", Value: elm.Str("id = $1")},
					{Name: "params", Value: elm.List{Items: []elm.Expr{elm.Ref("id")}}},
				}}),
			},
		},
	}
}

func queryToString() elm.Decl {
	return elm.Func{
		Name:   "toString",
		Type:   "Query a -> String",
		Params: []string{"query"},
		Body: elm.Op{
			Left: elm.Op{
				Left:  elm.Ref(`"filters:" ++ String.fromInt (List.length query.filter)`),
				Op:    "++",
				Right: elm.Ref(`"_sorts:" ++ String.fromInt (List.length query.sort)`),
			},
			Op:    "++",
			Right: elm.Ref(`"_paginated:" ++ (if query.paginate /= Nothing then "yes" else "no")`),
		},
	}
}
