package handlers

import (
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/emit/routes"
	"github.com/teranos/buildamp/js"
)

func compileScript() []byte {
	return []byte(`#!/bin/sh
# Compile every Elm handler in this directory to a CommonJS module.
# ` + emit.GeneratedNotice + `
set -e
cd "$(dirname "$0")"

for elm_file in *Handler.elm; do
    [ -f "$elm_file" ] || continue
    name=$(basename "$elm_file" .elm)
    echo "Compiling $name..."
    elm make "$elm_file" --output="$name.js"
    mv "$name.js" "$name.cjs"
done
`)
}

func service(endpoints []routes.Endpoint) []byte {
	names := make([]js.Expr, 0, len(endpoints))
	for _, ep := range endpoints {
		names = append(names, js.Str(ep.Path))
	}

	return js.Format(js.File{
		Header: []string{
			"Runs compiled Elm handler workers for the API routes",
			"",
			emit.GeneratedNotice,
		},
		Imports: []js.Import{
			{Default: "path", From: "path"},
			{Names: []string{"createRequire"}, From: "module"},
		},
		Body: []js.Node{
			js.Const{Doc: []string{"Endpoints with a handler worker"}, Export: true, Name: "HANDLERS", Value: js.Array{Items: names}},
			createElmService(),
		},
	})
}

func createElmService() js.Func {
	load := js.ForOf{Var: "name", Iter: "HANDLERS", Body: []js.Stmt{js.Try{
		Body: []js.Stmt{
			js.Var{Name: "file", Value: js.Call("path.join", js.Code("handlersPath"), js.Code("name + 'Handler.cjs'"))},
			js.Do{X: js.Code("delete require.cache[require.resolve(file)]")},
			js.Do{X: js.Call("workers.set", js.Code("name"), js.Code("require(file).Elm.Api.Handlers[name + 'Handler']"))},
		},
		Var: "error",
		Catch: []js.Stmt{
			js.Do{X: js.Call("console.warn", js.Code("'Handler ' + name + ' not loaded: ' + error.message"))},
		},
	}}}

	call := js.Arrow{
		Async:  true,
		Params: []string{"name", "requestData", "context = {}"},
		Body: []js.Stmt{
			js.Var{Name: "worker", Value: js.Call("workers.get", js.Code("name"))},
			js.If{Cond: "!worker", Then: []js.Stmt{
				js.Throw{Value: js.Code("new Error('Handler ' + name + ' not available')")},
			}},
			js.Var{Name: "globalConfig", Value: js.Object{Props: []js.Prop{
				{Key: "serverNow", Value: js.Code("Date.now()")},
				{Key: "hostIsolation", Value: js.Code("true")},
				{Key: "environment", Value: js.Code("process.env.NODE_ENV || 'development'")},
			}}},
			js.Var{Name: "globalState", Value: js.Code("{ requestCount: 0, lastActivity: Date.now() }")},
			js.Var{Name: "app", Value: js.Call("worker.init", js.Code("{ flags: { globalConfig, globalState } }"))},
			js.Blank{},
			js.Return{Value: js.Call("new Promise", js.Arrow{
				Params: []string{"resolve", "reject"},
				Body: []js.Stmt{
					js.Do{X: js.Call("app.ports.complete.subscribe", js.Arrow{
						Params: []string{"result"},
						Body: []js.Stmt{
							js.If{
								Cond: "result && result.error",
								Then: []js.Stmt{js.Do{X: js.Call("reject", js.Code("new Error(result.error)"))}},
								Else: []js.Stmt{js.Do{X: js.Call("resolve", js.Code("result"))}},
							},
						},
					})},
					js.Do{X: js.Call("app.ports.handleRequest.send", js.Code("{ request: requestData, context, globalConfig, globalState }"))},
				},
			})},
		},
	}

	return js.Func{
		Doc: []string{
			"Load every compiled handler from handlersPath and register",
			"the 'elm' service the API routes call into",
		},
		Export:  true,
		Default: true,
		Name:    "createElmService",
		Params:  []string{"server", "handlersPath"},
		Body: []js.Stmt{
			js.Var{Name: "require", Value: js.Call("createRequire", js.Code("import.meta.url"))},
			js.Var{Name: "workers", Value: js.Code("new Map()")},
			js.Blank{},
			load,
			js.Blank{},
			js.Var{Name: "elmService", Value: js.Object{Props: []js.Prop{
				{Key: "callHandler", Value: call},
				{Key: "cleanup", Value: js.Arrow{Async: true, Body: []js.Stmt{js.Do{X: js.Call("workers.clear")}}}},
			}}},
			js.Blank{},
			js.Do{X: js.Call("server.registerService", js.Str("elm"), js.Code("elmService"))},
			js.Return{Value: js.Code("elmService")},
		},
	}
}
