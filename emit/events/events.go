// Package events emits Generated.Events: one payload variant per event model
// and the immediate, delayed and recurring scheduling entry points.
package events

import (
	"github.com/teranos/buildamp/elm"
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/registry"
	"github.com/teranos/buildamp/typemap"
)

const (
	// Domain is the model directory this emitter reads
	Domain = "events"
	// ElmPath is the port module, relative to the Elm root
	ElmPath = "Generated/Events.elm"
	// Suffix names payload records: SendWelcomeEmail -> SendWelcomeEmailData
	Suffix = "Data"
)

// Reserved fields are filled in by the event runtime, never by handlers.
var Reserved = map[string]bool{
	"correlation_id": true,
	"execute_at":     true,
}

// Generate renders Events.elm. Every model in the domain becomes a variant.
func Generate(models []model.Classified) *emit.Result {
	models = emit.Unique(models)
	mapper := typemap.New(registry.Build(Domain, models), typemap.WithSuffix(Suffix))

	decls := []elm.Decl{
		elm.Section{Title: "SCHEDULING"},
		schedule("pushEvent", "Run a background event now", nil, elm.Int(0), elm.Ref("Nothing")),
		schedule("scheduleEvent", "Run a background event after delaySeconds",
			[]param{{"delaySeconds", "Int"}}, elm.Ref("delaySeconds"), elm.Ref("Nothing")),
		schedule("cronEvent", "Run a background event on a cron schedule",
			[]param{{"cronExpression", "String"}}, elm.Int(0), elm.Call("Just", elm.Ref("cronExpression"))),

		elm.Section{Title: "PAYLOADS"},
		payloadUnion(models),
	}

	var encoders []elm.Decl
	for _, m := range models {
		fields := emit.MapFields(mapper, m.Name, payloadFields(m))
		typeName := m.Name + Suffix
		decls = append(decls, emit.RecordAlias(typeName, "", fields, false))
		encoders = append(encoders, emit.RecordEncoder(typeName, fields))
	}

	decls = append(decls,
		elm.Section{Title: "PORTS"},
		elm.Port{Name: "eventPush", Type: "EventRequest -> Cmd msg"},
		elm.TypeAlias{
			Name: "EventRequest",
			Fields: []elm.Field{
				{Name: "event", Type: "Encode.Value"},
				{Name: "delay", Type: "Int"},
				{Name: "schedule", Type: "Maybe String"},
			},
		},
		elm.Section{Title: "ENCODING"},
		payloadEncoder(models),
	)
	decls = append(decls, encoders...)
	decls = append(decls, emit.EncodeHelpers()...)

	res := &emit.Result{Models: len(models)}
	res.Add(emit.File{
		Location: emit.Location{Root: emit.RootElm, Path: ElmPath},
		Content: elm.Format(elm.Module{
			Name:    "Generated.Events",
			Port:    true,
			Doc:     "Background events for handlers.\n\n" + emit.GeneratedNotice,
			Imports: []elm.Import{{Module: "Json.Encode", As: "Encode"}},
			Decls:   decls,
		}),
	})
	res.Diagnostics = mapper.Diagnostics()
	return res
}

func payloadFields(m model.Classified) []model.Field {
	var out []model.Field
	for _, f := range m.Fields {
		if !Reserved[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

type param struct {
	name string
	typ  string
}

func schedule(name, doc string, params []param, delay, sched elm.Expr) elm.Func {
	typ := ""
	var names []string
	for _, p := range params {
		typ += p.typ + " -> "
		names = append(names, p.name)
	}
	return elm.Func{
		Doc:    doc,
		Name:   name,
		Type:   typ + "EventPayload -> Cmd msg",
		Params: append(names, "payload"),
		Body: elm.Call("eventPush", elm.Record{Fields: []elm.Assign{
			{Name: "event", Value: elm.Call("encodeEventPayload", elm.Ref("payload"))},
			{Name: "delay", Value: delay},
			{Name: "schedule", Value: sched},
		}}),
	}
}

func payloadUnion(models []model.Classified) elm.Union {
	u := elm.Union{Name: "EventPayload"}
	if len(models) == 0 {
		u.Variants = []elm.Variant{{Name: "NoEvents"}}
		return u
	}
	for _, m := range models {
		u.Variants = append(u.Variants, elm.Variant{Name: m.Name, Args: []string{m.Name + Suffix}})
	}
	return u
}

// payloadEncoder tags each payload with its variant name.
func payloadEncoder(models []model.Classified) elm.Func {
	var branches []elm.Branch
	if len(models) == 0 {
		branches = []elm.Branch{{Pattern: "NoEvents", Body: elm.Call("Encode.object", elm.List{})}}
	}
	for _, m := range models {
		branches = append(branches, elm.Branch{
			Pattern: m.Name + " data",
			Body: elm.Call("Encode.object", elm.List{Items: []elm.Expr{
				emit.Pair("type", elm.Call("Encode.string", elm.Str(m.Name))),
				emit.Pair("data", elm.Call(emit.EncoderName(m.Name+Suffix), elm.Ref("data"))),
			}}),
		})
	}
	return elm.Func{
		Name:   "encodeEventPayload",
		Type:   "EventPayload -> Encode.Value",
		Params: []string{"payload"},
		Body:   elm.Case{Subject: elm.Ref("payload"), Branches: branches},
	}
}
