// Package routes emits the external HTTP surface: a Generated.Api client
// module with one Http.post function per endpoint, and the Express
// registrations that validate requests and hand them to Elm handlers.
package routes

import (
	"fmt"

	"github.com/teranos/buildamp/elm"
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/registry"
	"github.com/teranos/buildamp/typemap"
)

const (
	// Domain is the model directory this emitter reads
	Domain = "api"
	// ElmPath is the client module, relative to the Elm root
	ElmPath = "Generated/Api.elm"
	// JSPath is the route registration module, relative to the JS root
	JSPath = "api-routes.js"
	// URLPrefix is prepended to every endpoint path
	URLPrefix = "/api/"
)

// Struct attributes that may carry path = "X".
var pathAttrs = []string{"buildamp", "buildamp_api", "api"}

// Endpoint is one routed request struct.
type Endpoint struct {
	// Path is the endpoint name, e.g. GetFeed
	Path    string
	Request model.Classified
	// Response is the <Path>Res model when the domain declares one
	Response *model.Classified
}

// URL is the route the endpoint is served on.
func (e Endpoint) URL() string {
	return URLPrefix + e.Path
}

// FuncName is the Elm client function: GetFeed -> getFeed.
func (e Endpoint) FuncName() string {
	return emit.LowerFirst(e.Path)
}

// Path returns the endpoint path declared on a struct.
func Path(m model.Classified) (string, bool) {
	for _, attr := range pathAttrs {
		if p, ok := m.Attrs.Get(attr, "path"); ok && p != "" {
			return p, true
		}
	}
	return "", false
}

// ValidPath reports whether p can name an Elm module and a JS identifier:
// an ASCII capital followed by ASCII letters or digits.
func ValidPath(p string) bool {
	if p == "" || p[0] < 'A' || p[0] > 'Z' {
		return false
	}
	for i := 1; i < len(p); i++ {
		c := p[i]
		if !('A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

// Endpoints lists the routed structs in declaration order. A path declared
// twice keeps its first struct. Structs whose path is not a valid
// identifier are left out and reported as diagnostics.
func Endpoints(models []model.Classified) ([]Endpoint, []typemap.Diagnostic) {
	models = emit.Unique(models)
	byName := make(map[string]int, len(models))
	for i, m := range models {
		byName[m.Name] = i
	}

	seen := map[string]bool{}
	var (
		out   []Endpoint
		diags []typemap.Diagnostic
	)
	for _, m := range models {
		path, ok := Path(m)
		if !ok || seen[path] {
			continue
		}
		if !ValidPath(path) {
			diags = append(diags, typemap.Diagnostic{
				Model:   m.Name,
				Message: fmt.Sprintf("endpoint path %q is not an identifier; endpoint skipped", path),
			})
			continue
		}
		seen[path] = true
		ep := Endpoint{Path: path, Request: m}
		if i, ok := byName[path+"Res"]; ok {
			res := models[i]
			ep.Response = &res
		}
		out = append(out, ep)
	}
	return out, diags
}

func required(f model.Field) bool {
	return f.Attrs.Has("api", "Required")
}

func trimmed(f model.Field) bool {
	return f.Attrs.Has("api", "Trim")
}

// injected returns the server context key a field is filled from.
func injected(f model.Field) (string, bool) {
	v, ok := f.Attrs.Get("api", "Inject")
	return v, ok && v != ""
}

// Generate renders Api.elm and api-routes.js.
func Generate(models []model.Classified) *emit.Result {
	models = emit.Unique(models)
	mapper := typemap.New(registry.Build(Domain, models))
	endpoints, rejected := Endpoints(models)

	var decls []elm.Decl
	for _, m := range models {
		fields := emit.MapFields(mapper, m.Name, m.Fields)
		decls = append(decls,
			elm.Section{Title: m.Name + " (" + emit.SourceName(m) + ")"},
			emit.RecordAlias(m.Name, "", fields, false),
			emit.RecordDecoder(m.Name, fields),
			emit.RecordEncoder(m.Name, fields),
		)
	}

	decls = append(decls, elm.Section{Title: "ENDPOINTS"})
	for _, ep := range endpoints {
		decls = append(decls, client(ep))
	}
	decls = append(decls, endpointList(endpoints))

	decls = append(decls, elm.Section{Title: "HELPERS"})
	decls = append(decls, emit.EncodeHelpers()...)
	decls = append(decls, emit.DecodeHelpers()...)

	res := &emit.Result{Models: len(endpoints)}
	res.Add(
		emit.File{
			Location: emit.Location{Root: emit.RootElm, Path: ElmPath},
			Content: elm.Format(elm.Module{
				Name:    "Generated.Api",
				Doc:     "HTTP client for the API endpoints.\n\n" + emit.GeneratedNotice,
				Imports: append([]elm.Import{{Module: "Http"}}, emit.JSONImports()...),
				Decls:   decls,
			}),
		},
		emit.File{
			Location: emit.Location{Root: emit.RootJS, Path: JSPath},
			Content:  expressRoutes(endpoints),
		},
	)
	res.Diagnostics = append(rejected, mapper.Diagnostics()...)
	return res
}

func client(ep Endpoint) elm.Func {
	resType, decoder := "Decode.Value", "Decode.value"
	if ep.Response != nil {
		resType = ep.Response.Name
		decoder = emit.DecoderName(resType)
	}
	return elm.Func{
		Doc:    "POST " + ep.URL(),
		Name:   ep.FuncName(),
		Type:   ep.Request.Name + " -> (Result Http.Error " + resType + " -> msg) -> Cmd msg",
		Params: []string{"request", "toMsg"},
		Body: elm.Call("Http.post", elm.Record{Fields: []elm.Assign{
			{Name: "url", Value: elm.Str(ep.URL())},
			{Name: "body", Value: elm.Call("Http.jsonBody", elm.Call(emit.EncoderName(ep.Request.Name), elm.Ref("request")))},
			{Name: "expect", Value: elm.Call("Http.expectJson", elm.Ref("toMsg"), elm.Ref(decoder))},
		}}),
	}
}

func endpointList(endpoints []Endpoint) elm.Func {
	items := make([]elm.Expr, 0, len(endpoints))
	for _, ep := range endpoints {
		items = append(items, elm.Str(ep.Path))
	}
	return elm.Func{
		Name: "endpoints",
		Type: "List String",
		Body: elm.List{Items: items},
	}
}
