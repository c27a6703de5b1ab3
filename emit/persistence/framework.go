package persistence

import (
	"github.com/teranos/buildamp/elm"
	"github.com/teranos/buildamp/emit"
)

// framework is the model-independent part of Generated.Database.
func framework() []elm.Decl {
	decls := []elm.Decl{
		elm.Section{Title: "GLOBAL TYPES"},
		elm.TypeAlias{
			Doc:  "Read-only configuration the server hands a handler at startup",
			Name: "GlobalConfig",
			Fields: []elm.Field{
				{Name: "serverNow", Type: "Int", Comment: "server clock, Unix milliseconds"},
				{Name: "hostIsolation", Type: "Bool"},
				{Name: "environment", Type: "String"},
			},
		},
		elm.TypeAlias{
			Doc:  "Per-instance handler state",
			Name: "GlobalState",
			Fields: []elm.Field{
				{Name: "requestCount", Type: "Int"},
				{Name: "lastActivity", Type: "Int"},
			},
		},
		elm.Union{Name: "Database", Variants: []elm.Variant{{Name: "Database"}}},
		elm.TypeAlias{
			Doc:    "Composable query over one table",
			Name:   "Query",
			Params: []string{"a"},
			Fields: []elm.Field{
				{Name: "filter", Type: "List (Filter a)"},
				{Name: "sort", Type: "List (Sort a)"},
				{Name: "paginate", Type: "Maybe Pagination"},
			},
		},
		elm.Union{
			Name:   "Filter",
			Params: []string{"a"},
			Variants: []elm.Variant{
				{Name: "ById", Args: []string{"String"}},
				{Name: "BySlug", Args: []string{"String"}},
				{Name: "ByUserId", Args: []string{"String"}},
				{Name: "ByField", Args: []string{"String", "String"}},
			},
		},
		elm.Union{
			Name:   "Sort",
			Params: []string{"a"},
			Variants: []elm.Variant{
				{Name: "CreatedAtAsc"},
				{Name: "CreatedAtDesc"},
				{Name: "TitleAsc"},
				{Name: "TitleDesc"},
			},
		},
		elm.TypeAlias{
			Name: "Pagination",
			Fields: []elm.Field{
				{Name: "offset", Type: "Int"},
				{Name: "limit", Type: "Int"},
			},
		},

		elm.Section{Title: "QUERY BUILDERS"},
		elm.Func{
			Doc:  "Every row",
			Name: "queryAll",
			Type: "Query a",
			Body: elm.Record{Fields: []elm.Assign{
				{Name: "filter", Value: elm.List{}},
				{Name: "sort", Value: elm.List{}},
				{Name: "paginate", Value: elm.Ref("Nothing")},
			}},
		},
		filterBuilder("byId", "id", "ById"),
		filterBuilder("bySlug", "slug", "BySlug"),
		elm.Func{
			Doc:    "Newest first",
			Name:   "sortByCreatedAt",
			Type:   "Query a -> Query a",
			Params: []string{"query"},
			Body: elm.Update{Target: "query", Fields: []elm.Assign{
				{Name: "sort", Value: elm.List{Items: []elm.Expr{elm.Ref("CreatedAtDesc")}}},
			}},
		},
		elm.Func{
			Name:   "paginate",
			Type:   "Int -> Int -> Query a -> Query a",
			Params: []string{"offset", "limit", "query"},
			Body: elm.Update{Target: "query", Fields: []elm.Assign{
				{Name: "paginate", Value: elm.Ref("Just { offset = offset, limit = limit }")},
			}},
		},
		elm.Func{
			Name:   "addFilter",
			Type:   "Filter a -> Query a -> Query a",
			Params: []string{"filter", "query"},
			Body: elm.Update{Target: "query", Fields: []elm.Assign{
				{Name: "filter", Value: elm.Op{Left: elm.Ref("query.filter"), Op: "++", Right: elm.List{Items: []elm.Expr{elm.Ref("filter")}}}},
			}},
		},
		elm.Func{
			Name:   "limitOne",
			Type:   "Query a -> Query a",
			Params: []string{"query"},
			Body: elm.Update{Target: "query", Fields: []elm.Assign{
				{Name: "paginate", Value: elm.Ref("Just { offset = 0, limit = 1 }")},
			}},
		},

		elm.Section{Title: "PORTS"},
		elm.Port{Name: "dbFind", Type: "DbFindRequest -> Cmd msg"},
		elm.Port{Name: "dbCreate", Type: "DbCreateRequest -> Cmd msg"},
		elm.Port{Name: "dbUpdate", Type: "DbUpdateRequest -> Cmd msg"},
		elm.Port{Name: "dbKill", Type: "DbKillRequest -> Cmd msg"},
		elm.Port{Name: "dbResult", Type: "(DbResponse -> msg) -> Sub msg"},
		request("DbFindRequest", elm.Field{Name: "query", Type: "Encode.Value"}),
		request("DbCreateRequest", elm.Field{Name: "data", Type: "Encode.Value"}),
		request("DbUpdateRequest",
			elm.Field{Name: "data", Type: "Encode.Value"},
			elm.Field{Name: "whereClause", Type: "String"},
			elm.Field{Name: "params", Type: "List String"},
		),
		request("DbKillRequest",
			elm.Field{Name: "whereClause", Type: "String"},
			elm.Field{Name: "params", Type: "List String"},
		),
		elm.TypeAlias{
			Name: "DbResponse",
			Fields: []elm.Field{
				{Name: "id", Type: "String"},
				{Name: "success", Type: "Bool"},
				{Name: "data", Type: "Maybe Encode.Value"},
				{Name: "error", Type: "Maybe String"},
			},
		},

		elm.Section{Title: "QUERY ENCODING"},
		elm.Func{
			Name:   "encodeQuery",
			Type:   "Query a -> Encode.Value",
			Params: []string{"query"},
			Body: elm.Call("Encode.object", elm.List{Items: []elm.Expr{
				emit.Pair("filter", elm.Call("Encode.list", elm.Ref("encodeFilter"), elm.Ref("query.filter"))),
				emit.Pair("sort", elm.Call("Encode.list", elm.Ref("encodeSort"), elm.Ref("query.sort"))),
				emit.Pair("paginate", elm.Call("encodeMaybePagination", elm.Ref("query.paginate"))),
			}}),
		},
		elm.Func{
			Name:   "encodeFilter",
			Type:   "Filter a -> Encode.Value",
			Params: []string{"filter"},
			Body: elm.Case{Subject: elm.Ref("filter"), Branches: []elm.Branch{
				filterBranch("ById id", "ById", "id"),
				filterBranch("BySlug slug", "BySlug", "slug"),
				filterBranch("ByUserId userId", "ByUserId", "userId"),
				{Pattern: "ByField field value", Body: elm.Call("Encode.object", elm.List{Items: []elm.Expr{
					emit.Pair("type", elm.Call("Encode.string", elm.Str("ByField"))),
					emit.Pair("field", elm.Call("Encode.string", elm.Ref("field"))),
					emit.Pair("value", elm.Call("Encode.string", elm.Ref("value"))),
				}})},
			}},
		},
		elm.Func{
			Name:   "encodeSort",
			Type:   "Sort a -> Encode.Value",
			Params: []string{"sort"},
			Body: elm.Case{Subject: elm.Ref("sort"), Branches: []elm.Branch{
				{Pattern: "CreatedAtAsc", Body: elm.Call("Encode.string", elm.Str("created_at_asc"))},
				{Pattern: "CreatedAtDesc", Body: elm.Call("Encode.string", elm.Str("created_at_desc"))},
				{Pattern: "TitleAsc", Body: elm.Call("Encode.string", elm.Str("title_asc"))},
				{Pattern: "TitleDesc", Body: elm.Call("Encode.string", elm.Str("title_desc"))},
			}},
		},
		elm.Func{
			Name:   "encodeMaybePagination",
			Type:   "Maybe Pagination -> Encode.Value",
			Params: []string{"maybePagination"},
			Body: elm.Case{Subject: elm.Ref("maybePagination"), Branches: []elm.Branch{
				{Pattern: "Nothing", Body: elm.Ref("Encode.null")},
				{Pattern: "Just pagination", Body: elm.Call("Encode.object", elm.List{Items: []elm.Expr{
					emit.Pair("offset", elm.Call("Encode.int", elm.Ref("pagination.offset"))),
					emit.Pair("limit", elm.Call("Encode.int", elm.Ref("pagination.limit"))),
				}})},
			}},
		},
	}
	return decls
}

func filterBuilder(name, param, variant string) elm.Func {
	return elm.Func{
		Name:   name,
		Type:   "String -> Query a -> Query a",
		Params: []string{param, "query"},
		Body: elm.Update{Target: "query", Fields: []elm.Assign{{
			Name: "filter",
			Value: elm.Op{
				Left:  elm.Ref("query.filter"),
				Op:    "++",
				Right: elm.List{Items: []elm.Expr{elm.Call(variant, elm.Ref(param))}},
			},
		}}},
	}
}

func filterBranch(pattern, variant, value string) elm.Branch {
	return elm.Branch{Pattern: pattern, Body: elm.Call("Encode.object", elm.List{Items: []elm.Expr{
		emit.Pair("type", elm.Call("Encode.string", elm.Str(variant))),
		emit.Pair("value", elm.Call("Encode.string", elm.Ref(value))),
	}})}
}

// request is a port payload: id, table, then extra fields.
func request(name string, extra ...elm.Field) elm.TypeAlias {
	fields := []elm.Field{
		{Name: "id", Type: "String"},
		{Name: "table", Type: "String"},
	}
	return elm.TypeAlias{Name: name, Fields: append(fields, extra...)}
}
