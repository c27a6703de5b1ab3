package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/emit/emittest"
)

const apiTree = `
-- feed_api.rs --
#[buildamp(path = "GetFeed")]
pub struct GetFeedReq {
    #[api(Inject = "host")]
    pub host: String,
}

pub struct GetFeedRes {
    pub titles: Vec<String>,
}
-- comments_api.rs --
#[api(path = "SubmitComment")]
pub struct SubmitCommentReq {
    #[api(Required)]
    pub text: String,
}
`

func TestGenerate_Files(t *testing.T) {
	res := Generate(emittest.Models(t, apiTree))
	require.Len(t, res.Files, 4)
	assert.Equal(t, 2, res.Models)

	feed, ok := res.Find(emit.RootHandlers, "GetFeedHandler.elm")
	require.True(t, ok)
	assert.Equal(t, emit.Scaffold, feed.Kind)
	assert.Equal(t, Dependencies, feed.DependsOn)

	_, ok = res.Find(emit.RootHandlers, "SubmitCommentHandler.elm")
	assert.True(t, ok)

	script, ok := res.Find(emit.RootHandlers, CompileScript)
	require.True(t, ok)
	assert.Equal(t, emit.Generated, script.Kind)
	assert.True(t, script.Executable)

	svc, ok := res.Find(emit.RootJS, ServicePath)
	require.True(t, ok)
	assert.Equal(t, emit.Generated, svc.Kind)
	assert.False(t, svc.Executable)
}

func TestScaffold_TypedResponse(t *testing.T) {
	out := emittest.Content(t, Generate(emittest.Models(t, apiTree)), emit.RootHandlers, "GetFeedHandler.elm")

	assert.True(t, strings.HasPrefix(out, "port module Api.Handlers.GetFeedHandler exposing (main)\n"))
	assert.Contains(t, out, "import Generated.Api as Api\nimport Generated.Database as DB\n")
	assert.Contains(t, out, `type alias Model =
    { stage : Stage
    , request : Maybe Api.GetFeedReq
    , context : Maybe Context
    , globalConfig : GlobalConfig
    , globalState : GlobalState
    }`)
	assert.Contains(t, out, "    | Complete Api.GetFeedRes\n    | Failed String")
	assert.Contains(t, out, "type alias GlobalConfig =\n    DB.GlobalConfig")
	assert.Contains(t, out, `update msg model =
    case msg of
        HandleRequest bundle ->
            case decodeRequest bundle of
                Ok ( req, ctx ) ->
                    ( { model
`)
	assert.Contains(t, out, strings.Repeat(" ", 26)+"| stage = Processing\n")
	assert.Contains(t, out, "                Err error ->\n                    ( { model | stage = Failed error }, Cmd.none )")
	assert.Contains(t, out, "decodeRequest : RequestBundle -> Result String ( Api.GetFeedReq, Context )")
	assert.Contains(t, out, `(Decode.field "user_id" Decode.string)`)
	assert.Contains(t, out, "processRequest request =\n    Task.perform (\\_ -> ProcessingComplete (Debug.todo \"Implement GetFeed handler\")) (Task.succeed ())")
	assert.Contains(t, out, "encodeResponse : Api.GetFeedRes -> Encode.Value\nencodeResponse response =\n    Api.encodeGetFeedRes response")
	assert.Contains(t, out, `    let
        ( newModel, cmd ) =
            update msg model
    in
    case newModel.stage of
        Complete response ->
            ( newModel
            , Cmd.batch`)
	assert.Contains(t, out, "port complete : Encode.Value -> Cmd msg")
	assert.Contains(t, out, "subscriptions _ =\n    handleRequest HandleRequest")
}

func TestScaffold_UntypedResponse(t *testing.T) {
	out := emittest.Content(t, Generate(emittest.Models(t, apiTree)), emit.RootHandlers, "SubmitCommentHandler.elm")

	assert.Contains(t, out, "    | Complete Encode.Value\n")
	assert.Contains(t, out, "encodeResponse : Encode.Value -> Encode.Value\nencodeResponse response =\n    identity response")
	assert.Contains(t, out, "Api.submitCommentReqDecoder bundle.request")
}

func TestService(t *testing.T) {
	out := emittest.Content(t, Generate(emittest.Models(t, apiTree)), emit.RootJS, ServicePath)

	assert.Contains(t, out, "import path from 'path';\nimport { createRequire } from 'module';")
	assert.Contains(t, out, "export const HANDLERS = ['GetFeed', 'SubmitComment'];")
	assert.Contains(t, out, "export default function createElmService(server, handlersPath) {")
	assert.Contains(t, out, "        callHandler: async (name, requestData, context = {}) => {\n")
	assert.Contains(t, out, "app.ports.handleRequest.send({ request: requestData, context, globalConfig, globalState });\n")
	assert.Contains(t, out, "    server.registerService('elm', elmService);\n    return elmService;\n}")
}

func TestCompileScript(t *testing.T) {
	res := Generate(nil)
	f, ok := res.Find(emit.RootHandlers, CompileScript)
	require.True(t, ok)

	script := string(f.Content)
	assert.True(t, strings.HasPrefix(script, "#!/bin/sh\n"))
	assert.Contains(t, script, `elm make "$elm_file" --output="$name.js"`)
}

func TestGenerate_EmptyDomain(t *testing.T) {
	res := Generate(nil)
	require.Len(t, res.Files, 2)
	assert.Zero(t, res.Models)

	out := emittest.Content(t, res, emit.RootJS, ServicePath)
	assert.Contains(t, out, "export const HANDLERS = [];")
}

func TestGenerate_Idempotent(t *testing.T) {
	models := emittest.Models(t, apiTree)
	assert.Equal(t, Generate(models).Files, Generate(models).Files)
}

func TestGenerate_InvalidPathSkipsScaffold(t *testing.T) {
	res := Generate(emittest.Models(t, `
-- a.rs --
#[buildamp(path = "../../Evil")]
pub struct EvilReq { pub n: i32 }
#[buildamp(path = "get-feed")]
pub struct DashedReq { pub n: i32 }
#[buildamp(path = "Ping")]
pub struct PingReq { pub n: i32 }
`))
	assert.Equal(t, 1, res.Models)
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, "EvilReq", res.Diagnostics[0].Model)
	assert.Equal(t, "DashedReq", res.Diagnostics[1].Model)

	var scaffolds []string
	for _, f := range res.Files {
		assert.NotContains(t, f.Location.Path, "..")
		if f.Kind == emit.Scaffold {
			scaffolds = append(scaffolds, f.Location.Path)
		}
	}
	assert.Equal(t, []string{"PingHandler.elm"}, scaffolds)
	assert.NotContains(t, emittest.Content(t, res, emit.RootJS, ServicePath), "get-feed")
}
