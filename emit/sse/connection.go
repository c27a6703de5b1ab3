package sse

import (
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/js"
	"github.com/teranos/buildamp/model"
)

func connection(models []model.Classified) []byte {
	names := make([]js.Expr, 0, len(models))
	for _, m := range models {
		names = append(names, js.Str(EventName(m)))
	}

	return js.Format(js.File{
		Header: []string{
			"EventSource glue for Generated.ServerSentEvents",
			"",
			emit.GeneratedNotice,
		},
		Body: []js.Node{
			js.Const{
				Doc:    []string{"Named events the stream may carry"},
				Export: true,
				Name:   "SSE_EVENTS",
				Value:  js.Array{Items: names},
			},
			setupSSE(models),
		},
	})
}

func setupSSE(models []model.Classified) js.Func {
	subscribe := []js.Stmt{
		js.If{Cond: "eventSource", Then: []js.Stmt{js.Do{X: js.Call("eventSource.close")}}},
		js.Assign{Target: "eventSource", Value: js.Code("new EventSource(config.url || baseUrl)")},
		js.Assign{Target: "eventSource.onerror", Value: js.Arrow{Params: []string{"event"}, Body: []js.Stmt{
			js.Do{X: js.Call("console.error", js.Str("SSE connection error:"), js.Code("event"))},
		}}},
		js.Assign{Target: "eventSource.onmessage", Value: js.Arrow{Params: []string{"event"}, Body: []js.Stmt{
			js.Var{Name: "message", Value: js.Call("parse", js.Code("event.data"))},
			js.If{Cond: "message", Then: []js.Stmt{
				js.Do{X: js.Call("deliver", js.Code("message.type || 'unknown'"), js.Code("message.data || {}"))},
			}},
		}}},
	}
	for _, m := range models {
		name := EventName(m)
		subscribe = append(subscribe, js.Do{X: js.Call("eventSource.addEventListener", js.Str(name), js.Arrow{
			Params: []string{"event"},
			Body: []js.Stmt{
				js.Var{Name: "data", Value: js.Call("parse", js.Code("event.data"))},
				js.If{Cond: "data !== null", Then: []js.Stmt{
					js.Do{X: js.Call("deliver", js.Str(name), js.Code("data"))},
				}},
			},
		})})
	}

	return js.Func{
		Doc: []string{
			"Connect an Elm app's sseSubscription port to an EventSource",
			"and forward every event to its sseMessage port",
		},
		Export: true,
		Name:   "setupSSE",
		Params: []string{"app", "baseUrl = " + js.Quote(DefaultURL)},
		Body: []js.Stmt{
			js.If{Cond: "!app || !app.ports || !app.ports.sseSubscription", Then: []js.Stmt{
				js.Do{X: js.Call("console.warn", js.Str("SSE: Elm app or ports not available"))},
				js.Return{},
			}},
			js.Blank{},
			js.Var{Kind: "let", Name: "eventSource", Value: js.Code("null")},
			js.Blank{},
			js.Var{Name: "deliver", Value: js.Arrow{Params: []string{"eventType", "data"}, Body: []js.Stmt{
				js.If{Cond: "app.ports.sseMessage", Then: []js.Stmt{
					js.Do{X: js.Call("app.ports.sseMessage.send", js.Code("{ eventType, data }"))},
				}},
			}}},
			js.Blank{},
			js.Var{Name: "parse", Value: js.Arrow{Params: []string{"raw"}, Body: []js.Stmt{
				js.Try{
					Body: []js.Stmt{js.Return{Value: js.Call("JSON.parse", js.Code("raw"))}},
					Var:  "error",
					Catch: []js.Stmt{
						js.Do{X: js.Call("console.error", js.Str("Error parsing SSE event:"), js.Code("error"))},
						js.Return{Value: js.Code("null")},
					},
				},
			}}},
			js.Blank{},
			js.Do{X: js.Call("app.ports.sseSubscription.subscribe", js.Arrow{Params: []string{"config"}, Body: subscribe})},
			js.Blank{},
			js.Do{X: js.Call("window.addEventListener", js.Str("beforeunload"), js.Arrow{Body: []js.Stmt{
				js.If{Cond: "eventSource", Then: []js.Stmt{js.Do{X: js.Call("eventSource.close")}}},
			}})},
		},
	}
}
