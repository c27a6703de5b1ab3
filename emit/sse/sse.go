// Package sse emits server-sent event types: a Generated.ServerSentEvents
// module that decodes incoming events into one SSEEvent union, and the
// browser glue that feeds an EventSource into it.
package sse

import (
	"github.com/teranos/buildamp/elm"
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/registry"
	"github.com/teranos/buildamp/typemap"
)

const (
	// Domain is the model directory this emitter reads
	Domain = "sse"
	// ElmPath is the event module, relative to the Elm root
	ElmPath = "Generated/ServerSentEvents.elm"
	// JSPath is the EventSource glue, relative to the JS root
	JSPath = "sse-connection.js"
	// DefaultURL is the stream endpoint used when Elm does not name one
	DefaultURL = "/api/events"
)

// EventName is the wire name of a model's events: NewCommentEvent -> new_comment_event.
func EventName(m model.Classified) string {
	return emit.ToSnakeCase(m.Name)
}

func variant(m model.Classified) string {
	return m.Name + "Event"
}

// Generate renders ServerSentEvents.elm and sse-connection.js.
func Generate(models []model.Classified) *emit.Result {
	models = emit.Unique(models)
	mapper := typemap.New(registry.Build(Domain, models))

	decls := []elm.Decl{elm.Section{Title: "EVENT TYPES"}}
	for _, m := range models {
		fields := emit.MapFields(mapper, m.Name, m.Fields)
		decls = append(decls,
			emit.RecordAlias(m.Name, "", fields, false),
			emit.RecordDecoder(m.Name, fields),
			emit.RecordEncoder(m.Name, fields),
		)
	}

	decls = append(decls, elm.Section{Title: "EVENTS"}, eventUnion(models), decodeEvent(models))
	decls = append(decls, subscription()...)

	decls = append(decls, elm.Section{Title: "HELPERS"})
	decls = append(decls, emit.EncodeHelpers()...)
	decls = append(decls, emit.DecodeHelpers()...)

	res := &emit.Result{Models: len(models)}
	res.Add(
		emit.File{
			Location: emit.Location{Root: emit.RootElm, Path: ElmPath},
			Content: elm.Format(elm.Module{
				Name:    "Generated.ServerSentEvents",
				Port:    true,
				Doc:     "Server-sent event types and decoders.\n\n" + emit.GeneratedNotice,
				Imports: emit.JSONImports(),
				Decls:   decls,
			}),
		},
		emit.File{
			Location: emit.Location{Root: emit.RootJS, Path: JSPath},
			Content:  connection(models),
		},
	)
	res.Diagnostics = mapper.Diagnostics()
	return res
}

func eventUnion(models []model.Classified) elm.Union {
	u := elm.Union{
		Name:     "SSEEvent",
		Variants: []elm.Variant{{Name: "UnknownEvent", Args: []string{"String"}}},
	}
	for _, m := range models {
		u.Variants = append(u.Variants, elm.Variant{Name: variant(m), Args: []string{m.Name}})
	}
	return u
}

// decodeEvent dispatches on the wire name; unknown names are kept, not failed.
func decodeEvent(models []model.Classified) elm.Func {
	var branches []elm.Branch
	for _, m := range models {
		branches = append(branches, elm.Branch{
			Pattern: elm.Quote(EventName(m)),
			Body: elm.Call("Decode.decodeValue",
				elm.Call("Decode.map", elm.Ref(variant(m)), elm.Ref(emit.DecoderName(m.Name))),
				elm.Ref("jsonData"),
			),
		})
	}
	branches = append(branches, elm.Branch{
		Pattern: "_",
		Body:    elm.Call("Ok", elm.Call("UnknownEvent", elm.Ref("eventType"))),
	})
	return elm.Func{
		Doc:    "Decode the payload of an event received as eventType",
		Name:   "decodeSSEEvent",
		Type:   "String -> Decode.Value -> Result Decode.Error SSEEvent",
		Params: []string{"eventType", "jsonData"},
		Body:   elm.Case{Subject: elm.Ref("eventType"), Branches: branches},
	}
}

func subscription() []elm.Decl {
	return []elm.Decl{
		elm.Section{Title: "PORTS"},
		elm.TypeAlias{Name: "SseMessage", Fields: []elm.Field{
			{Name: "eventType", Type: "String"},
			{Name: "data", Type: "Decode.Value"},
		}},
		elm.Port{Name: "sseSubscription", Type: "{ url : String } -> Cmd msg"},
		elm.Port{Name: "sseMessage", Type: "(SseMessage -> msg) -> Sub msg"},
		elm.Func{
			Doc:    "Open (or reopen) the event stream at url",
			Name:   "connect",
			Type:   "String -> Cmd msg",
			Params: []string{"url"},
			Body:   elm.Call("sseSubscription", elm.Ref("{ url = url }")),
		},
		elm.Func{
			Name:   "onEvent",
			Type:   "(Result Decode.Error SSEEvent -> msg) -> Sub msg",
			Params: []string{"toMsg"},
			Body: elm.Call("sseMessage", elm.Lambda{
				Params: []string{"message"},
				Body:   elm.Call("toMsg", elm.Call("decodeSSEEvent", elm.Ref("message.eventType"), elm.Ref("message.data"))),
			}),
		},
	}
}
