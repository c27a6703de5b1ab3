package routes

import (
	"strconv"

	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/js"
)

func expressRoutes(endpoints []Endpoint) []byte {
	var body []js.Stmt
	for _, ep := range endpoints {
		body = append(body,
			js.LineComment{Text: ep.Request.Name + " (" + emit.SourceName(ep.Request) + ")"},
			route(ep),
			js.Blank{},
		)
	}
	body = append(body, js.Return{Value: js.Code(strconv.Itoa(len(endpoints)))})

	return js.Format(js.File{
		Header: []string{
			"Express routes for the API endpoints",
			"",
			emit.GeneratedNotice,
		},
		Body: []js.Node{
			js.Func{
				Doc:     []string{"Register every endpoint on server.app; returns the number registered"},
				Export:  true,
				Default: true,
				Name:    "registerApiRoutes",
				Params:  []string{"server"},
				Body:    body,
			},
		},
	})
}

func route(ep Endpoint) js.Stmt {
	handler := []js.Stmt{
		js.Var{Name: "requestData", Value: js.Code("{ ...req.body }")},
	}
	handler = append(handler, prepare(ep)...)
	handler = append(handler,
		js.If{Cond: "!req.context", Then: []js.Stmt{
			js.Do{X: js.Code("req.context = { host }")},
		}},
		js.Var{Name: "elmService", Value: js.Call("server.getService", js.Str("elm"))},
		js.If{Cond: "!elmService", Then: []js.Stmt{
			js.Throw{Value: js.Code("new Error('Elm service not available')")},
		}},
		js.Var{Name: "result", Value: js.Call("await elmService.callHandler", js.Str(ep.Path), js.Code("requestData"), js.Object{Props: []js.Prop{
			{Key: "host"},
			{Key: "user_id", Value: js.Code("req.context.user_id || null")},
			{Key: "is_extension", Value: js.Code("req.context.is_extension || false")},
			{Key: "tenant", Value: js.Code("host")},
		}})},
		js.Do{X: js.Call("res.json", js.Code("result"))},
	)

	return js.Do{X: js.Call("server.app.post", js.Str(ep.URL()), js.Arrow{
		Async:  true,
		Params: []string{"req", "res"},
		Body: []js.Stmt{
			js.Var{Name: "host", Value: js.Code("req.tenant?.host || 'localhost'")},
			js.Try{
				Body: handler,
				Var:  "error",
				Catch: []js.Stmt{
					js.Do{X: js.Call("console.error", js.Str("Error handling "+ep.Path+":"), js.Code("error"))},
					js.Do{X: js.Code("res.status(400).json({ error: error.message })")},
				},
			},
		},
	})}
}

// prepare injects server-owned fields, trims, then rejects missing required fields.
// Injected values overwrite anything the client sent.
func prepare(ep Endpoint) []js.Stmt {
	var stmts []js.Stmt
	for _, f := range ep.Request.Fields {
		if key, ok := injected(f); ok {
			stmts = append(stmts, js.Do{X: js.Code("requestData." + f.Name + " = " + contextValue(key))})
		}
	}
	for _, f := range ep.Request.Fields {
		if !trimmed(f) {
			continue
		}
		ref := "requestData." + f.Name
		stmts = append(stmts, js.If{Cond: "typeof " + ref + " === 'string'", Then: []js.Stmt{
			js.Do{X: js.Code(ref + " = " + ref + ".trim()")},
		}})
	}
	for _, f := range ep.Request.Fields {
		if !required(f) {
			continue
		}
		if _, ok := injected(f); ok {
			continue
		}
		ref := "requestData." + f.Name
		stmts = append(stmts, js.If{
			Cond: ref + " === undefined || " + ref + " === null || " + ref + " === ''",
			Then: []js.Stmt{
				js.Return{Value: js.Code("res.status(400).json({ error: " + js.Quote(f.Name+" is required") + " })")},
			},
		})
	}
	return stmts
}

// contextValue is the expression an injected field is read from.
func contextValue(key string) string {
	if key == "host" {
		return "host"
	}
	return "req.context?." + key + " ?? null"
}
