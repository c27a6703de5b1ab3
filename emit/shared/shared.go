// Package shared emits the cross-cutting Elm modules every handler may
// import: the HTTP services port module and the app configuration types.
package shared

import (
	"github.com/teranos/buildamp/elm"
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/registry"
	"github.com/teranos/buildamp/typemap"
)

const (
	// Domain is the model directory holding configuration structs
	Domain = "config"
	// ServicesPath is the services port module, relative to the Elm root
	ServicesPath = "Generated/Services.elm"
	// ConfigPath is the configuration module, relative to the Elm root
	ConfigPath = "Generated/Config.elm"
)

// Methods are the HTTP methods a handler may use, in declaration order.
var Methods = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

const headersType = "List ( String, String )"

// Generate renders Services.elm and Config.elm from the configuration models.
func Generate(models []model.Classified) *emit.Result {
	models = emit.Unique(models)
	mapper := typemap.New(registry.Build(Domain, models))

	res := &emit.Result{Models: len(models)}
	res.Add(
		emit.File{
			Location: emit.Location{Root: emit.RootElm, Path: ServicesPath},
			Content:  services(),
		},
		emit.File{
			Location: emit.Location{Root: emit.RootElm, Path: ConfigPath},
			Content:  configModule(mapper, models),
		},
	)
	res.Diagnostics = mapper.Diagnostics()
	return res
}

func services() []byte {
	decls := []elm.Decl{
		elm.Section{Title: "HTTP REQUESTS"},
		verb("get", "GET", "Make a GET request", false),
		verb("post", "POST", "Make a POST request with a JSON body", true),
		verb("put", "PUT", "", true),
		verb("delete", "DELETE", "", false),
		request(),
		elm.Func{
			Doc:  "Responses to every request, matched by id",
			Name: "onResponse",
			Type: "(HttpResponsePort -> msg) -> Sub msg",
			Body: elm.Ref("httpResponse"),
		},

		elm.Section{Title: "TYPES"},
		elm.TypeAlias{Name: "HttpRequest", Fields: []elm.Field{
			{Name: "method", Type: "HttpMethod"},
			{Name: "url", Type: "String"},
			{Name: "headers", Type: headersType},
			{Name: "body", Type: "Maybe Encode.Value"},
		}},
		elm.TypeAlias{Name: "HttpResponse", Fields: []elm.Field{
			{Name: "status", Type: "Int"},
			{Name: "headers", Type: headersType},
			{Name: "body", Type: "String"},
		}},
		methodUnion(),

		elm.Section{Title: "PORTS"},
		elm.Port{Name: "httpRequest", Type: "HttpRequestPort -> Cmd msg"},
		elm.Port{Name: "httpResponse", Type: "(HttpResponsePort -> msg) -> Sub msg"},
		elm.TypeAlias{Name: "HttpRequestPort", Fields: []elm.Field{
			{Name: "id", Type: "String"},
			{Name: "method", Type: "String"},
			{Name: "url", Type: "String"},
			{Name: "headers", Type: headersType},
			{Name: "body", Type: "Maybe Encode.Value"},
		}},
		elm.TypeAlias{Name: "HttpResponsePort", Fields: []elm.Field{
			{Name: "id", Type: "String"},
			{Name: "success", Type: "Bool"},
			{Name: "status", Type: "Maybe Int"},
			{Name: "headers", Type: "Maybe (" + headersType + ")"},
			{Name: "body", Type: "Maybe String"},
			{Name: "error", Type: "Maybe String"},
		}},

		elm.Section{Title: "HELPERS"},
		methodToString(),
		emit.HashHelper(),
	}

	return elm.Format(elm.Module{
		Name:    "Generated.Services",
		Port:    true,
		Doc:     "HTTP services for handlers.\n\n" + emit.GeneratedNotice,
		Imports: []elm.Import{{Module: "Json.Encode", As: "Encode"}},
		Decls:   decls,
	})
}

func verb(name, method, doc string, withBody bool) elm.Func {
	params := []string{"url", "headers"}
	typ := "String -> " + headersType + " -> Cmd msg"
	var body elm.Expr = elm.Ref("Nothing")
	if withBody {
		params = append(params, "body")
		typ = "String -> " + headersType + " -> Encode.Value -> Cmd msg"
		body = elm.Call("Just", elm.Ref("body"))
	}
	return elm.Func{
		Doc:    doc,
		Name:   name,
		Type:   typ,
		Params: params,
		Body: elm.Call("request", elm.Record{Fields: []elm.Assign{
			{Name: "method", Value: elm.Ref(method)},
			{Name: "url", Value: elm.Ref("url")},
			{Name: "headers", Value: elm.Ref("headers")},
			{Name: "body", Value: body},
		}}),
	}
}

// request ids derive from url and method, so a retried request keeps its id.
func request() elm.Func {
	id := elm.Op{
		Left: elm.Str("req_"),
		Op:   "++",
		Right: elm.Call("String.fromInt",
			elm.Call("abs", elm.Call("hashString", elm.Op{
				Left:  elm.Ref("req.url"),
				Op:    "++",
				Right: elm.Call("httpMethodToString", elm.Ref("req.method")),
			})),
		),
	}
	return elm.Func{
		Doc:    "Send any request through the httpRequest port",
		Name:   "request",
		Type:   "HttpRequest -> Cmd msg",
		Params: []string{"req"},
		Body: elm.Let{
			Bindings: []elm.Assign{{Name: "requestId", Value: id}},
			In: elm.Call("httpRequest", elm.Record{Fields: []elm.Assign{
				{Name: "id", Value: elm.Ref("requestId")},
				{Name: "method", Value: elm.Call("httpMethodToString", elm.Ref("req.method"))},
				{Name: "url", Value: elm.Ref("req.url")},
				{Name: "headers", Value: elm.Ref("req.headers")},
				{Name: "body", Value: elm.Ref("req.body")},
			}}),
		},
	}
}

func methodUnion() elm.Union {
	u := elm.Union{Name: "HttpMethod"}
	for _, m := range Methods {
		u.Variants = append(u.Variants, elm.Variant{Name: m})
	}
	return u
}

func methodToString() elm.Func {
	branches := make([]elm.Branch, 0, len(Methods))
	for _, m := range Methods {
		branches = append(branches, elm.Branch{Pattern: m, Body: elm.Str(m)})
	}
	return elm.Func{
		Name:   "httpMethodToString",
		Type:   "HttpMethod -> String",
		Params: []string{"method"},
		Body:   elm.Case{Subject: elm.Ref("method"), Branches: branches},
	}
}

// configModule declares the shape of the flags the app is initialized with.
func configModule(mapper *typemap.Mapper, models []model.Classified) []byte {
	var decls []elm.Decl
	if len(models) == 0 {
		decls = append(decls, elm.TypeAlias{Name: "EmptyConfig", Fields: []elm.Field{}})
	}
	for _, m := range models {
		fields := emit.MapFields(mapper, m.Name, m.Fields)
		decls = append(decls,
			elm.Section{Title: m.Name + " (" + emit.SourceName(m) + ")"},
			emit.RecordAlias(m.Name, "", fields, false),
			emit.RecordDecoder(m.Name, fields),
			emit.RecordEncoder(m.Name, fields),
		)
	}
	decls = append(decls, elm.Section{Title: "HELPERS"})
	decls = append(decls, emit.EncodeHelpers()...)
	decls = append(decls, emit.DecodeHelpers()...)

	return elm.Format(elm.Module{
		Name:    "Generated.Config",
		Doc:     "Configuration passed to the app through init flags.\n\n" + emit.GeneratedNotice,
		Imports: emit.JSONImports(),
		Decls:   decls,
	})
}
