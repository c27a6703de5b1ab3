// Package handlers emits one Elm worker scaffold per API endpoint, plus the
// build script and Node service that compile and run them.
//
// Scaffolds are created once and then belong to the developer; the pipeline
// hands them to the scaffold guard instead of overwriting them.
package handlers

import (
	"github.com/teranos/buildamp/elm"
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/emit/persistence"
	"github.com/teranos/buildamp/emit/routes"
	"github.com/teranos/buildamp/model"
)

const (
	// ModulePrefix is the Elm module namespace of the handler root
	ModulePrefix = "Api.Handlers."
	// CompileScript builds every handler, relative to the handler root
	CompileScript = "compile-handlers.sh"
	// ServicePath is the Node service, relative to the JS root
	ServicePath = "elm-service.js"
)

// Prerequisite is the shared module a scaffold imports; handlers are only
// created once it exists.
var Prerequisite = emit.Location{Root: emit.RootElm, Path: persistence.ElmPath}

// Dependencies are the generated modules whose changes may leave a scaffold stale.
var Dependencies = []emit.Location{
	Prerequisite,
	{Root: emit.RootElm, Path: routes.ElmPath},
}

// Name is the handler module for an endpoint: GetFeed -> GetFeedHandler.
func Name(ep routes.Endpoint) string {
	return ep.Path + "Handler"
}

// FileName is the scaffold path under the handler root.
func FileName(ep routes.Endpoint) string {
	return Name(ep) + ".elm"
}

// Generate renders the scaffolds for the API models and the shared build files.
func Generate(models []model.Classified) *emit.Result {
	endpoints, rejected := routes.Endpoints(models)

	res := &emit.Result{Models: len(endpoints), Diagnostics: rejected}
	for _, ep := range endpoints {
		res.Add(emit.File{
			Location:  emit.Location{Root: emit.RootHandlers, Path: FileName(ep)},
			Content:   scaffold(ep),
			Kind:      emit.Scaffold,
			DependsOn: Dependencies,
		})
	}
	res.Add(
		emit.File{
			Location:   emit.Location{Root: emit.RootHandlers, Path: CompileScript},
			Content:    compileScript(),
			Executable: true,
		},
		emit.File{
			Location: emit.Location{Root: emit.RootJS, Path: ServicePath},
			Content:  service(endpoints),
		},
	)
	return res
}

// Types a scaffold refers to: the request, the response, and their codecs.
type shape struct {
	request, response string
	decodeRequest     string
	encodeResponse    string
}

func shapeOf(ep routes.Endpoint) shape {
	s := shape{
		request:        "Api." + ep.Request.Name,
		response:       "Encode.Value",
		decodeRequest:  "Api." + emit.DecoderName(ep.Request.Name),
		encodeResponse: "identity",
	}
	if ep.Response != nil {
		s.response = "Api." + ep.Response.Name
		s.encodeResponse = "Api." + emit.EncoderName(ep.Response.Name)
	}
	return s
}

func scaffold(ep routes.Endpoint) []byte {
	s := shapeOf(ep)

	decls := []elm.Decl{
		elm.Section{Title: "MODEL"},
		elm.TypeAlias{Name: "Model", Fields: []elm.Field{
			{Name: "stage", Type: "Stage"},
			{Name: "request", Type: "Maybe " + s.request},
			{Name: "context", Type: "Maybe Context"},
			{Name: "globalConfig", Type: "GlobalConfig"},
			{Name: "globalState", Type: "GlobalState"},
		}},
		elm.Union{
			Doc:  "Add a stage per asynchronous step, e.g. LoadingData or SavingResults",
			Name: "Stage",
			Variants: []elm.Variant{
				{Name: "Idle"},
				{Name: "Processing"},
				{Name: "Complete", Args: []string{s.response}},
				{Name: "Failed", Args: []string{"String"}},
			},
		},
		elm.TypeAlias{Name: "Context", Fields: []elm.Field{
			{Name: "host", Type: "String"},
			{Name: "userId", Type: "Maybe String"},
			{Name: "sessionId", Type: "Maybe String"},
		}},
		elm.TypeAlias{Doc: "Server-issued, read-only", Name: "GlobalConfig", Type: "DB.GlobalConfig"},
		elm.TypeAlias{Name: "GlobalState", Type: "DB.GlobalState"},
		elm.TypeAlias{Name: "Flags", Fields: []elm.Field{
			{Name: "globalConfig", Type: "GlobalConfig"},
			{Name: "globalState", Type: "GlobalState"},
		}},

		elm.Section{Title: "UPDATE"},
		elm.Union{Name: "Msg", Variants: []elm.Variant{
			{Name: "HandleRequest", Args: []string{"RequestBundle"}},
			{Name: "ProcessingComplete", Args: []string{s.response}},
		}},
		elm.TypeAlias{Name: "RequestBundle", Fields: []elm.Field{
			{Name: "request", Type: "Encode.Value"},
			{Name: "context", Type: "Encode.Value"},
			{Name: "globalConfig", Type: "Encode.Value"},
			{Name: "globalState", Type: "Encode.Value"},
		}},
		initFunc(),
		updateFunc(),

		elm.Section{Title: "BUSINESS LOGIC"},
		elm.Func{
			Doc:    "Server clock for timestamps; never trust the client's",
			Name:   "getServerTimestamp",
			Type:   "GlobalConfig -> Int",
			Params: []string{"config"},
			Body:   elm.Ref("config.serverNow"),
		},
		processRequest(ep, s),

		elm.Section{Title: "DECODING"},
		elm.Func{
			Name:   "decodeRequest",
			Type:   "RequestBundle -> Result String ( " + s.request + ", Context )",
			Params: []string{"bundle"},
			Body: elm.Call("Result.map2",
				elm.Ref("Tuple.pair"),
				decodeWith(s.decodeRequest, "bundle.request"),
				decodeWith("contextDecoder", "bundle.context"),
			),
		},
		elm.Func{
			Name: "contextDecoder",
			Type: "Decode.Decoder Context",
			Body: elm.Call("Decode.map3",
				elm.Ref("Context"),
				elm.Call("Decode.field", elm.Str("host"), elm.Ref("Decode.string")),
				elm.Call("Decode.maybe", elm.Call("Decode.field", elm.Str("user_id"), elm.Ref("Decode.string"))),
				elm.Call("Decode.maybe", elm.Call("Decode.field", elm.Str("session_id"), elm.Ref("Decode.string"))),
			),
		},

		elm.Section{Title: "ENCODING"},
		elm.Func{
			Name:   "encodeResponse",
			Type:   s.response + " -> Encode.Value",
			Params: []string{"response"},
			Body:   elm.Call(s.encodeResponse, elm.Ref("response")),
		},
		elm.Func{
			Name:   "encodeError",
			Type:   "String -> Encode.Value",
			Params: []string{"error"},
			Body: elm.Call("Encode.object", elm.List{Items: []elm.Expr{
				emit.Pair("error", elm.Call("Encode.string", elm.Ref("error"))),
			}}),
		},

		elm.Section{Title: "PORTS"},
		elm.Port{Name: "handleRequest", Type: "(RequestBundle -> msg) -> Sub msg"},
		elm.Port{Name: "complete", Type: "Encode.Value -> Cmd msg"},

		elm.Section{Title: "MAIN"},
		elm.Func{
			Name: "main",
			Type: "Program Flags Model Msg",
			Body: elm.Call("Platform.worker", elm.Record{Fields: []elm.Assign{
				{Name: "init", Value: elm.Ref("init")},
				{Name: "update", Value: elm.Ref("updateWithResponse")},
				{Name: "subscriptions", Value: elm.Ref("subscriptions")},
			}}),
		},
		updateWithResponse(),
		elm.Func{
			Name:   "subscriptions",
			Type:   "Model -> Sub Msg",
			Params: []string{"_"},
			Body:   elm.Call("handleRequest", elm.Ref("HandleRequest")),
		},
	}

	return elm.Format(elm.Module{
		Name:     ModulePrefix + Name(ep),
		Port:     true,
		Exposing: []string{"main"},
		Doc: ep.Path + " handler, serving POST " + ep.URL() + ".\n\n" +
			"Created once by buildamp; this file is yours to edit and is never overwritten.",
		Imports: []elm.Import{
			{Module: "Generated.Api", As: "Api"},
			{Module: "Generated.Database", As: "DB"},
			{Module: "Generated.Services", As: "Services"},
			{Module: "Json.Decode", As: "Decode"},
			{Module: "Json.Encode", As: "Encode"},
			{Module: "Task"},
		},
		Decls: decls,
	})
}

func decodeWith(decoder, value string) elm.Op {
	return elm.Op{
		Left:  elm.Call("Decode.decodeValue", elm.Ref(decoder), elm.Ref(value)),
		Op:    "|>",
		Right: elm.Call("Result.mapError", elm.Ref("Decode.errorToString")),
	}
}

func initFunc() elm.Func {
	return elm.Func{
		Name:   "init",
		Type:   "Flags -> ( Model, Cmd Msg )",
		Params: []string{"flags"},
		Body: elm.Tuple{Items: []elm.Expr{
			elm.Record{Fields: []elm.Assign{
				{Name: "stage", Value: elm.Ref("Idle")},
				{Name: "request", Value: elm.Ref("Nothing")},
				{Name: "context", Value: elm.Ref("Nothing")},
				{Name: "globalConfig", Value: elm.Ref("flags.globalConfig")},
				{Name: "globalState", Value: elm.Ref("flags.globalState")},
			}},
			elm.Ref("Cmd.none"),
		}},
	}
}

func stageUpdate(stage elm.Expr) elm.Update {
	return elm.Update{Target: "model", Fields: []elm.Assign{{Name: "stage", Value: stage}}}
}

func updateFunc() elm.Func {
	started := elm.Tuple{Items: []elm.Expr{
		elm.Update{Target: "model", Fields: []elm.Assign{
			{Name: "stage", Value: elm.Ref("Processing")},
			{Name: "request", Value: elm.Call("Just", elm.Ref("req"))},
			{Name: "context", Value: elm.Call("Just", elm.Ref("ctx"))},
		}},
		elm.Call("processRequest", elm.Ref("req")),
	}}
	return elm.Func{
		Name:   "update",
		Type:   "Msg -> Model -> ( Model, Cmd Msg )",
		Params: []string{"msg", "model"},
		Body: elm.Case{Subject: elm.Ref("msg"), Branches: []elm.Branch{
			{Pattern: "HandleRequest bundle", Body: elm.Case{
				Subject: elm.Call("decodeRequest", elm.Ref("bundle")),
				Branches: []elm.Branch{
					{Pattern: "Ok ( req, ctx )", Body: started},
					{Pattern: "Err error", Body: elm.Tuple{Items: []elm.Expr{
						stageUpdate(elm.Call("Failed", elm.Ref("error"))),
						elm.Ref("Cmd.none"),
					}}},
				},
			}},
			{Pattern: "ProcessingComplete result", Body: elm.Tuple{Items: []elm.Expr{
				stageUpdate(elm.Call("Complete", elm.Ref("result"))),
				elm.Ref("Cmd.none"),
			}}},
		}},
	}
}

func processRequest(ep routes.Endpoint, s shape) elm.Func {
	return elm.Func{
		Doc: "Business logic for " + ep.Path + ". Typical steps:\n\n" +
			"    DB.findItems (DB.queryAll |> DB.sortByCreatedAt) DataLoaded\n\n" +
			"    Services.get \"https://api.example.com/data\" [] ApiResponseReceived",
		Name:   "processRequest",
		Type:   s.request + " -> Cmd Msg",
		Params: []string{"request"},
		Body: elm.Call("Task.perform",
			elm.Lambda{
				Params: []string{"_"},
				Body:   elm.Call("ProcessingComplete", elm.Call("Debug.todo", elm.Str("Implement "+ep.Path+" handler"))),
			},
			elm.Call("Task.succeed", elm.Ref("()")),
		),
	}
}

// updateWithResponse answers through the complete port once a stage is final.
func updateWithResponse() elm.Func {
	respond := func(payload elm.Expr) elm.Tuple {
		return elm.Tuple{Items: []elm.Expr{
			elm.Ref("newModel"),
			elm.Call("Cmd.batch", elm.List{Items: []elm.Expr{
				elm.Call("complete", payload),
				elm.Ref("cmd"),
			}}),
		}}
	}
	return elm.Func{
		Name:   "updateWithResponse",
		Type:   "Msg -> Model -> ( Model, Cmd Msg )",
		Params: []string{"msg", "model"},
		Body: elm.Let{
			Bindings: []elm.Assign{{Name: "( newModel, cmd )", Value: elm.Call("update", elm.Ref("msg"), elm.Ref("model"))}},
			In: elm.Case{Subject: elm.Ref("newModel.stage"), Branches: []elm.Branch{
				{Pattern: "Complete response", Body: respond(elm.Call("encodeResponse", elm.Ref("response")))},
				{Pattern: "Failed error", Body: respond(elm.Call("encodeError", elm.Ref("error")))},
				{Pattern: "_", Body: elm.Tuple{Items: []elm.Expr{elm.Ref("newModel"), elm.Ref("cmd")}}},
			}},
		},
	}
}
