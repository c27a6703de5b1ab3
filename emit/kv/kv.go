// Package kv emits the key-value capability: Generated.KV for handlers and
// tenant-isolated cache helpers for the server.
package kv

import (
	"strconv"

	"github.com/teranos/buildamp/elm"
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/registry"
	"github.com/teranos/buildamp/typemap"
)

const (
	// Domain is the model directory this emitter reads
	Domain = "kv"
	// ElmPath is the port module, relative to the Elm root
	ElmPath = "Generated/KV.elm"
	// JSPath is the server helper module, relative to the JS root
	JSPath = "kv-store.js"
	// DefaultTTL applies when a model carries no #[kv(ttl = N)]
	DefaultTTL = 3600
)

// TTL returns the model's expiry in seconds.
func TTL(m model.Classified) int {
	v, ok := m.Attrs.Get("kv", "ttl")
	if !ok {
		return DefaultTTL
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return DefaultTTL
	}
	return n
}

// Prefix is the key segment between host and caller key: UserSession -> user_session.
func Prefix(m model.Classified) string {
	return emit.ToSnakeCase(m.Name)
}

// Generate renders KV.elm and kv-store.js. Every model is cacheable.
func Generate(models []model.Classified) *emit.Result {
	models = emit.Unique(models)
	mapper := typemap.New(registry.Build(Domain, models))

	decls := ports()
	for _, m := range models {
		fields := emit.MapFields(mapper, m.Name, m.Fields)
		decls = append(decls,
			elm.Section{Title: m.Name + " (ttl " + strconv.Itoa(TTL(m)) + "s)"},
			emit.RecordAlias(m.Name, "", fields, false),
		)
		decls = append(decls, operations(m)...)
		decls = append(decls,
			emit.RecordDecoder(m.Name, fields),
			emit.RecordEncoder(m.Name, fields),
		)
	}
	decls = append(decls, elm.Section{Title: "HELPERS"})
	decls = append(decls, emit.EncodeHelpers()...)
	decls = append(decls, emit.DecodeHelpers()...)

	res := &emit.Result{Models: len(models)}
	res.Add(
		emit.File{
			Location: emit.Location{Root: emit.RootElm, Path: ElmPath},
			Content: elm.Format(elm.Module{
				Name:    "Generated.KV",
				Port:    true,
				Doc:     "Tenant-isolated key-value cache for handlers.\n\n" + emit.GeneratedNotice,
				Imports: emit.JSONImports(),
				Decls:   decls,
			}),
		},
		emit.File{
			Location: emit.Location{Root: emit.RootJS, Path: JSPath},
			Content:  store(models),
		},
	)
	res.Diagnostics = mapper.Diagnostics()
	return res
}

func ports() []elm.Decl {
	keyed := func(name string, extra ...elm.Field) elm.TypeAlias {
		fields := []elm.Field{
			{Name: "id", Type: "String"},
			{Name: "model", Type: "String"},
			{Name: "key", Type: "String"},
		}
		return elm.TypeAlias{Name: name, Fields: append(fields, extra...)}
	}
	return []elm.Decl{
		elm.Section{Title: "PORTS"},
		elm.Port{Name: "kvSet", Type: "KvSetRequest -> Cmd msg"},
		elm.Port{Name: "kvGet", Type: "KvKeyRequest -> Cmd msg"},
		elm.Port{Name: "kvDelete", Type: "KvKeyRequest -> Cmd msg"},
		elm.Port{Name: "kvExists", Type: "KvKeyRequest -> Cmd msg"},
		elm.Port{Name: "kvResult", Type: "(KvResponse -> msg) -> Sub msg"},
		keyed("KvSetRequest",
			elm.Field{Name: "value", Type: "Encode.Value"},
			elm.Field{Name: "ttl", Type: "Int"},
		),
		keyed("KvKeyRequest"),
		elm.TypeAlias{
			Name: "KvResponse",
			Fields: []elm.Field{
				{Name: "id", Type: "String"},
				{Name: "success", Type: "Bool"},
				{Name: "data", Type: "Maybe Decode.Value"},
				{Name: "error", Type: "Maybe String"},
			},
		},
	}
}

// operations are set/get/delete/exists for one model, keyed by caller strings.
func operations(m model.Classified) []elm.Decl {
	prefix := Prefix(m)
	request := func(op string, extra ...elm.Assign) elm.Record {
		fields := []elm.Assign{
			{Name: "id", Value: elm.Op{Left: elm.Str(op + "_" + prefix + "_"), Op: "++", Right: elm.Ref("key")}},
			{Name: "model", Value: elm.Str(prefix)},
			{Name: "key", Value: elm.Ref("key")},
		}
		return elm.Record{Fields: append(fields, extra...)}
	}
	keyOp := func(op, port string) elm.Func {
		return elm.Func{
			Name:   op + m.Name,
			Type:   "String -> Cmd msg",
			Params: []string{"key"},
			Body:   elm.Call(port, request(op)),
		}
	}

	return []elm.Decl{
		elm.Func{
			Name:   "set" + m.Name,
			Type:   "String -> " + m.Name + " -> Cmd msg",
			Params: []string{"key", "value"},
			Body: elm.Call("kvSet", request("set",
				elm.Assign{Name: "value", Value: elm.Call(emit.EncoderName(m.Name), elm.Ref("value"))},
				elm.Assign{Name: "ttl", Value: elm.Int(TTL(m))},
			)),
		},
		keyOp("get", "kvGet"),
		keyOp("delete", "kvDelete"),
		keyOp("exists", "kvExists"),
	}
}
