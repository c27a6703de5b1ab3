package elm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat_Module(t *testing.T) {
	m := Module{
		Name: "Generated.Example",
		Port: true,
		Doc:  "Example module",
		Imports: []Import{
			{Module: "Json.Decode", As: "Decode"},
			{Module: "Json.Encode", As: "Encode"},
			{Module: "Dict", Exposing: []string{"Dict"}},
		},
		Decls: []Decl{
			Section{Title: "TYPES"},
			TypeAlias{
				Doc:  "A tag",
				Name: "TagDb",
				Fields: []Field{
					{Name: "id", Type: "String", Comment: "DatabaseId<String> in Rust"},
					{Name: "name", Type: "String"},
				},
			},
			Union{Name: "Sort", Params: []string{"a"}, Variants: []Variant{{Name: "Asc"}, {Name: "ByField", Args: []string{"String"}}}},
			Port{Name: "dbResult", Type: "(DbResponse -> msg) -> Sub msg"},
			Func{
				Name:   "encodeTagDb",
				Type:   "TagDb -> Encode.Value",
				Params: []string{"item"},
				Body: Call("Encode.object", List{Items: []Expr{
					Tuple{Items: []Expr{Str("id"), Call("Encode.string", Ref("item.id"))}},
					Tuple{Items: []Expr{Str("name"), Call("Encode.string", Ref("item.name"))}},
				}}),
			},
		},
	}

	want := `port module Generated.Example exposing (..)

{-| Example module
-}

import Json.Decode as Decode
import Json.Encode as Encode
import Dict exposing (Dict)


-- TYPES


{-| A tag
-}
type alias TagDb =
    { id : String -- DatabaseId<String> in Rust
    , name : String
    }


type Sort a
    = Asc
    | ByField String


port dbResult : (DbResponse -> msg) -> Sub msg


encodeTagDb : TagDb -> Encode.Value
encodeTagDb item =
    Encode.object
        [ ( "id", Encode.string item.id )
        , ( "name", Encode.string item.name )
        ]
`
	assert.Equal(t, want, string(Format(m)))
}

func TestFormat_NoImportsNoDoc(t *testing.T) {
	m := Module{
		Name:     "Generated.Empty",
		Exposing: []string{"version"},
		Decls:    []Decl{Func{Name: "version", Type: "Int", Body: Int(1)}},
	}
	assert.Equal(t, "module Generated.Empty exposing (version)\n\n\nversion : Int\nversion =\n    1\n", string(Format(m)))
}

func TestFormatExpr(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{
			name: "inline application parenthesizes nested apps",
			expr: Call("String.fromInt", Call("abs", Call("hashString", Ref("s")))),
			want: "String.fromInt (abs (hashString s))",
		},
		{
			name: "negative literal argument",
			expr: Call("max", Int(-1), Int(0)),
			want: "max (-1) 0",
		},
		{
			name: "record breaks per field",
			expr: Call("dbFind", Record{Fields: []Assign{
				{Name: "id", Value: Ref("requestId")},
				{Name: "table", Value: Str("tags")},
			}}),
			want: "dbFind\n    { id = requestId\n    , table = \"tags\"\n    }",
		},
		{
			name: "pipeline one step per line",
			expr: Pipe{Head: Call("Decode.succeed", Ref("TagDb")), Steps: []Expr{
				Call("decodeField", Str("id"), Ref("Decode.string")),
				Call("decodeField", Str("name"), Ref("Decode.string")),
			}},
			want: "Decode.succeed TagDb\n    |> decodeField \"id\" Decode.string\n    |> decodeField \"name\" Decode.string",
		},
		{
			name: "let binding",
			expr: Let{
				Bindings: []Assign{{Name: "requestId", Value: Op{Left: Str("kill_"), Op: "++", Right: Ref("id")}}},
				In:       Call("dbKill", Ref("requestId")),
			},
			want: "let\n    requestId =\n        \"kill_\" ++ id\nin\ndbKill requestId",
		},
		{
			name: "case branches separated",
			expr: Case{Subject: Ref("maybeValue"), Branches: []Branch{
				{Pattern: "Nothing", Body: Ref("Encode.null")},
				{Pattern: "Just value", Body: Call("encoder", Ref("value"))},
			}},
			want: "case maybeValue of\n    Nothing ->\n        Encode.null\n\n    Just value ->\n        encoder value",
		},
		{
			name: "single-field update inline",
			expr: Update{Target: "query", Fields: []Assign{{Name: "filter", Value: Op{Left: Ref("query.filter"), Op: "++", Right: List{Items: []Expr{Call("ById", Ref("id"))}}}}}},
			want: "{ query | filter = query.filter ++ [ ById id ] }",
		},
		{
			name: "if expression",
			expr: If{Cond: Ref("ok"), Then: Ref("a"), Else: Ref("b")},
			want: "if ok then\n    a\n\nelse\n    b",
		},
		{
			name: "lambda inline",
			expr: Call("String.foldl", Lambda{Params: []string{"c", "acc"}, Body: Ref("acc + 1")}, Int(0), Ref("s")),
			want: "String.foldl (\\c acc -> acc + 1) 0 s",
		},
		{
			name: "empty list and record",
			expr: Call("f", List{}, Record{}),
			want: "f [] {}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatExpr(tt.expr, 0))
		})
	}
}

func TestFormatExpr_NestedIndent(t *testing.T) {
	// A multi-line argument inside a record value is indented from the field
	e := Record{Fields: []Assign{
		{Name: "event", Value: Call("encodeEventPayload", Ref("payload"))},
		{Name: "body", Value: Call("Encode.object", List{Items: []Expr{
			Tuple{Items: []Expr{Str("a"), Int(1)}},
			Tuple{Items: []Expr{Str("b"), Int(2)}},
		}})},
	}}
	want := "{ event = encodeEventPayload payload\n" +
		", body =\n" +
		"    Encode.object\n" +
		"        [ ( \"a\", 1 )\n" +
		"        , ( \"b\", 2 )\n" +
		"        ]\n" +
		"}"
	assert.Equal(t, want, FormatExpr(e, 0))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"plain"`, Quote("plain"))
	assert.Equal(t, `"say \"hi\"\n"`, Quote("say \"hi\"\n"))
	assert.Equal(t, `"back\\slash"`, Quote(`back\slash`))
}
