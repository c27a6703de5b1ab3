package emit

import (
	"github.com/teranos/buildamp/elm"
	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/typemap"
)

// MappedField pairs a source field with its Elm rendering.
type MappedField struct {
	model.Field
	Elm    string
	Mapped typemap.Mapped
}

// MapFields maps every field once, in order. Fallbacks land on the mapper.
func MapFields(m *typemap.Mapper, modelName string, fields []model.Field) []MappedField {
	out := make([]MappedField, 0, len(fields))
	for _, f := range fields {
		out = append(out, MappedField{
			Field:  f,
			Elm:    ElmField(f.Name),
			Mapped: m.MapField(modelName, f),
		})
	}
	return out
}

// DecoderName is the decoder for an Elm type: UserProfileDb -> userProfileDbDecoder.
func DecoderName(typeName string) string {
	return LowerFirst(typeName) + "Decoder"
}

// EncoderName is the encoder for an Elm type: UserProfileDb -> encodeUserProfileDb.
func EncoderName(typeName string) string {
	return "encode" + typeName
}

// RecordAlias declares a record type alias for fields.
// With rawComments each field carries its source type as a trailing comment.
func RecordAlias(typeName, doc string, fields []MappedField, rawComments bool) elm.TypeAlias {
	alias := elm.TypeAlias{Doc: doc, Name: typeName, Fields: []elm.Field{}}
	for _, f := range fields {
		ef := elm.Field{Name: f.Elm, Type: f.Mapped.Target}
		if rawComments {
			ef.Comment = f.RawType() + " in Rust"
		}
		alias.Fields = append(alias.Fields, ef)
	}
	return alias
}

// RecordDecoder decodes a JSON object into typeName with one decodeField per field.
func RecordDecoder(typeName string, fields []MappedField) elm.Func {
	var body elm.Expr
	if len(fields) == 0 {
		body = elm.Call("Decode.succeed", elm.Record{})
	} else {
		steps := make([]elm.Expr, 0, len(fields))
		for _, f := range fields {
			steps = append(steps, elm.Call("decodeField", elm.Str(f.Name), elm.Ref(f.Mapped.Decoder)))
		}
		body = elm.Pipe{Head: elm.Call("Decode.succeed", elm.Ref(typeName)), Steps: steps}
	}
	return elm.Func{
		Name: DecoderName(typeName),
		Type: "Decode.Decoder " + typeName,
		Body: body,
	}
}

// RecordEncoder encodes typeName as a JSON object keyed by source field names.
func RecordEncoder(typeName string, fields []MappedField) elm.Func {
	items := make([]elm.Expr, 0, len(fields))
	for _, f := range fields {
		items = append(items, Pair(f.Name, elm.Call(f.Mapped.Encoder, elm.Ref("item."+f.Elm))))
	}
	return elm.Func{
		Name:   EncoderName(typeName),
		Type:   typeName + " -> Encode.Value",
		Params: []string{"item"},
		Body:   elm.Call("Encode.object", elm.List{Items: items}),
	}
}

// Pair is one `( "key", value )` entry of an Encode.object list.
func Pair(key string, value elm.Expr) elm.Tuple {
	return elm.Tuple{Items: []elm.Expr{elm.Str(key), value}}
}

// JSONImports are the codec imports every generated module uses.
func JSONImports() []elm.Import {
	return []elm.Import{
		{Module: "Json.Decode", As: "Decode"},
		{Module: "Json.Encode", As: "Encode"},
	}
}

// EncodeHelpers are the encoder helpers referenced by mapped encoders.
func EncodeHelpers() []elm.Decl {
	return []elm.Decl{
		elm.Func{
			Name:   "encodeMaybe",
			Type:   "(a -> Encode.Value) -> Maybe a -> Encode.Value",
			Params: []string{"encoder", "maybeValue"},
			Body: elm.Case{Subject: elm.Ref("maybeValue"), Branches: []elm.Branch{
				{Pattern: "Nothing", Body: elm.Ref("Encode.null")},
				{Pattern: "Just value", Body: elm.Call("encoder", elm.Ref("value"))},
			}},
		},
	}
}

// DecodeHelpers are the decoder helpers referenced by mapped decoders.
func DecodeHelpers() []elm.Decl {
	return []elm.Decl{
		elm.Func{
			Doc:  "Pipeline-style decoding",
			Name: "andMap",
			Type: "Decode.Decoder a -> Decode.Decoder (a -> b) -> Decode.Decoder b",
			Body: elm.Call("Decode.map2", elm.Ref("(|>)")),
		},
		elm.Func{
			Name:   "decodeField",
			Type:   "String -> Decode.Decoder a -> Decode.Decoder (a -> b) -> Decode.Decoder b",
			Params: []string{"fieldName", "decoder"},
			Body:   elm.Call("andMap", elm.Call("Decode.field", elm.Ref("fieldName"), elm.Ref("decoder"))),
		},
		elm.Func{
			Doc:  "Timestamps arrive as integers or as BIGINT strings",
			Name: "timestampDecoder",
			Type: "Decode.Decoder Int",
			Body: elm.Call("Decode.oneOf", elm.List{Items: []elm.Expr{
				elm.Ref("Decode.int"),
				elm.Op{Left: elm.Ref("Decode.string"), Op: "|>", Right: elm.Call("Decode.andThen", elm.Ref("stringToInt"))},
			}}),
		},
		elm.Func{
			Name:   "stringToInt",
			Type:   "String -> Decode.Decoder Int",
			Params: []string{"str"},
			Body: elm.Case{Subject: elm.Call("String.toInt", elm.Ref("str")), Branches: []elm.Branch{
				{Pattern: "Just int", Body: elm.Call("Decode.succeed", elm.Ref("int"))},
				{Pattern: "Nothing", Body: elm.Call("Decode.fail", elm.Op{
					Left: elm.Str("Could not parse timestamp: "), Op: "++", Right: elm.Ref("str"),
				})},
			}},
		},
	}
}

// HashHelper derives stable request ids from strings.
func HashHelper() elm.Decl {
	return elm.Func{
		Name:   "hashString",
		Type:   "String -> Int",
		Params: []string{"str"},
		Body: elm.Call("String.foldl",
			elm.Lambda{Params: []string{"char", "acc"}, Body: elm.Ref("acc * 31 + Char.toCode char")},
			elm.Int(0),
			elm.Ref("str"),
		),
	}
}
