package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/emit/emittest"
)

func TestGenerate_Services(t *testing.T) {
	res := Generate(nil)
	require.Len(t, res.Files, 2)

	out := emittest.Content(t, res, emit.RootElm, ServicesPath)
	assert.Contains(t, out, "port module Generated.Services exposing (..)")
	assert.Contains(t, out, `post : String -> List ( String, String ) -> Encode.Value -> Cmd msg
post url headers body =
    request
        { method = POST
        , url = url
        , headers = headers
        , body = Just body
        }`)
	assert.Contains(t, out, "delete url headers =\n    request\n        { method = DELETE\n")
	assert.Contains(t, out, `request req =
    let
        requestId =
            "req_" ++ String.fromInt (abs (hashString (req.url ++ httpMethodToString req.method)))
    in
    httpRequest
        { id = requestId
        , method = httpMethodToString req.method`)
	assert.Contains(t, out, `type HttpMethod
    = GET
    | POST
    | PUT
    | DELETE
    | PATCH`)
	assert.Contains(t, out, "port httpResponse : (HttpResponsePort -> msg) -> Sub msg")
	assert.Contains(t, out, "    , headers : Maybe (List ( String, String ))\n")
	assert.Contains(t, out, `        PATCH ->
            "PATCH"`)
	assert.Contains(t, out, "hashString : String -> Int")
}

func TestGenerate_ServicesIgnoresModels(t *testing.T) {
	models := emittest.Models(t, `
-- app_config.rs --
pub struct AppConfig { pub site_name: String }
`)
	with := emittest.Content(t, Generate(models), emit.RootElm, ServicesPath)
	without := emittest.Content(t, Generate(nil), emit.RootElm, ServicesPath)
	assert.Equal(t, without, with)
}

func TestGenerate_Config(t *testing.T) {
	res := Generate(emittest.Models(t, `
-- app_config.rs --
pub struct AppConfig {
    pub site_name: String,
    pub features: Vec<FeatureFlag>,
}

pub struct FeatureFlag {
    pub name: String,
    pub enabled: bool,
}
`))
	assert.Equal(t, 2, res.Models)

	out := emittest.Content(t, res, emit.RootElm, ConfigPath)
	assert.Contains(t, out, "module Generated.Config exposing (..)")
	assert.Contains(t, out, `type alias AppConfig =
    { siteName : String
    , features : List FeatureFlag
    }`)
	assert.Contains(t, out, `|> decodeField "features" (Decode.list featureFlagDecoder)`)
	assert.Contains(t, out, "encodeFeatureFlag : FeatureFlag -> Encode.Value")
	assert.NotContains(t, out, "EmptyConfig")
}

func TestGenerate_EmptyDomain(t *testing.T) {
	res := Generate(nil)
	assert.Zero(t, res.Models)

	out := emittest.Content(t, res, emit.RootElm, ConfigPath)
	assert.Contains(t, out, "type alias EmptyConfig =\n    {}")
	assert.Contains(t, out, "andMap : Decode.Decoder a -> Decode.Decoder (a -> b) -> Decode.Decoder b")
}

func TestGenerate_Idempotent(t *testing.T) {
	assert.Equal(t, Generate(nil).Files, Generate(nil).Files)
}
