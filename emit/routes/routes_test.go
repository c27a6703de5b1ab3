package routes

import (
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
    pub items: Vec<FeedItem>,
}

pub struct FeedItem {
    pub id: String,
    pub title: String,
}
-- comments_api.rs --
#[api(server_context = "SubmitCommentData", path = "SubmitComment")]
pub struct SubmitCommentReq {
    #[api(Inject = "host")]
    pub host: String,
    pub item_id: String,
    #[api(Required, Trim, MinLength(1), MaxLength(500))]
    pub text: String,
    pub author_name: Option<String>,
}
`

func TestEndpoints(t *testing.T) {
	eps, rejected := Endpoints(emittest.Models(t, apiTree))
	require.Len(t, eps, 2)
	assert.Empty(t, rejected)

	assert.Equal(t, "GetFeed", eps[0].Path)
	assert.Equal(t, "/api/GetFeed", eps[0].URL())
	assert.Equal(t, "getFeed", eps[0].FuncName())
	assert.Equal(t, "GetFeedReq", eps[0].Request.Name)
	require.NotNil(t, eps[0].Response)
	assert.Equal(t, "GetFeedRes", eps[0].Response.Name)

	assert.Equal(t, "SubmitComment", eps[1].Path)
	assert.Nil(t, eps[1].Response)
}

func TestEndpoints_DuplicatePathKeepsFirst(t *testing.T) {
	eps, _ := Endpoints(emittest.Models(t, `
-- a.rs --
#[buildamp(path = "Ping")]
pub struct PingReq { pub n: i32 }
#[buildamp_api(path = "Ping")]
pub struct PingAgain { pub n: i32 }
`))
	require.Len(t, eps, 1)
	assert.Equal(t, "PingReq", eps[0].Request.Name)
}

func TestValidPath(t *testing.T) {
	for p, want := range map[string]bool{
		"GetFeed":   true,
		"V2Search":  true,
		"":          false,
		"getFeed":   false,
		"get-feed":  false,
		"../Evil":   false,
		"Get Feed":  false,
		"9Lives":    false,
		"Feed/Item": false,
		"Café":      false,
	} {
		assert.Equal(t, want, ValidPath(p), p)
	}
}

const badPathTree = `
-- a.rs --
#[buildamp(path = "../Evil")]
pub struct EvilReq { pub n: i32 }
#[api(path = "get-feed")]
pub struct DashedReq { pub n: i32 }
#[buildamp(path = "Ping")]
pub struct PingReq { pub n: i32 }
`

func TestEndpoints_RejectsInvalidPath(t *testing.T) {
	eps, rejected := Endpoints(emittest.Models(t, badPathTree))
	require.Len(t, eps, 1)
	assert.Equal(t, "Ping", eps[0].Path)

	require.Len(t, rejected, 2)
	assert.Equal(t, "EvilReq", rejected[0].Model)
	assert.Equal(t, `EvilReq: endpoint path "../Evil" is not an identifier; endpoint skipped`, rejected[0].String())
	assert.Equal(t, "DashedReq", rejected[1].Model)
	assert.Contains(t, rejected[1].Message, `"get-feed"`)
}

func TestGenerate_InvalidPathReported(t *testing.T) {
	res := Generate(emittest.Models(t, badPathTree))
	assert.Equal(t, 1, res.Models)
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, "EvilReq", res.Diagnostics[0].Model)

	elmOut := emittest.Content(t, res, emit.RootElm, ElmPath)
	assert.Contains(t, elmOut, "\nping : ")
	assert.NotContains(t, elmOut, "Evil\"")
	assert.NotContains(t, elmOut, "get-feed")
	assert.NotContains(t, emittest.Content(t, res, emit.RootJS, JSPath), "get-feed")
}

func TestGenerate_ElmClient(t *testing.T) {
	res := Generate(emittest.Models(t, apiTree))
	require.Len(t, res.Files, 2)
	assert.Equal(t, 2, res.Models)
	assert.Empty(t, res.Diagnostics)

	out := emittest.Content(t, res, emit.RootElm, ElmPath)
	assert.Contains(t, out, "module Generated.Api exposing (..)")
	assert.Contains(t, out, "import Http\nimport Json.Decode as Decode\nimport Json.Encode as Encode")
	assert.Contains(t, out, `type alias GetFeedRes =
    { items : List FeedItem
    }`)
	assert.Contains(t, out, `|> decodeField "items" (Decode.list feedItemDecoder)`)
	assert.Contains(t, out, `{-| POST /api/GetFeed
-}
getFeed : GetFeedReq -> (Result Http.Error GetFeedRes -> msg) -> Cmd msg
getFeed request toMsg =
    Http.post
        { url = "/api/GetFeed"
        , body = Http.jsonBody (encodeGetFeedReq request)
        , expect = Http.expectJson toMsg getFeedResDecoder
        }`)
	assert.Contains(t, out, "submitComment : SubmitCommentReq -> (Result Http.Error Decode.Value -> msg) -> Cmd msg")
	assert.Contains(t, out, "        , expect = Http.expectJson toMsg Decode.value\n")
	assert.Contains(t, out, `endpoints : List String
endpoints =
    [ "GetFeed"
    , "SubmitComment"
    ]`)
	assert.Contains(t, out, `( "author_name", (encodeMaybe Encode.string) item.authorName )`)
}

func TestGenerate_ExpressRoutes(t *testing.T) {
	out := emittest.Content(t, Generate(emittest.Models(t, apiTree)), emit.RootJS, JSPath)

	assert.Contains(t, out, "export default function registerApiRoutes(server) {\n    // GetFeedReq (feed_api.rs)\n")
	assert.Contains(t, out, `    server.app.post('/api/GetFeed', async (req, res) => {
        const host = req.tenant?.host || 'localhost';
        try {
            const requestData = { ...req.body };
            requestData.host = host;
            if (!req.context) {`)
	assert.Contains(t, out, `            requestData.host = host;
            if (typeof requestData.text === 'string') {
                requestData.text = requestData.text.trim();
            }
            if (requestData.text === undefined || requestData.text === null || requestData.text === '') {
                return res.status(400).json({ error: 'text is required' });
            }
`)
	assert.Contains(t, out, `            const result = await elmService.callHandler('SubmitComment', requestData, {
                host,
                user_id: req.context.user_id || null,
                is_extension: req.context.is_extension || false,
                tenant: host
            });
            res.json(result);
        } catch (error) {
            console.error('Error handling SubmitComment:', error);
            res.status(400).json({ error: error.message });
        }
    });`)
	assert.Contains(t, out, "    return 2;\n}\n")

	// Optional fields are neither trimmed nor required
	assert.NotContains(t, out, "requestData.author_name ===")
	assert.NotContains(t, out, "requestData.item_id ===")
}

func TestContextValue(t *testing.T) {
	assert.Equal(t, "host", contextValue("host"))
	assert.Equal(t, "req.context?.user_id ?? null", contextValue("user_id"))
}

func TestGenerate_EmptyDomain(t *testing.T) {
	res := Generate(nil)
	require.Len(t, res.Files, 2)
	assert.Zero(t, res.Models)

	elmOut := emittest.Content(t, res, emit.RootElm, ElmPath)
	assert.Contains(t, elmOut, "endpoints : List String\nendpoints =\n    []")
	assert.Contains(t, elmOut, "encodeMaybe : (a -> Encode.Value) -> Maybe a -> Encode.Value")

	jsOut := emittest.Content(t, res, emit.RootJS, JSPath)
	assert.Contains(t, jsOut, "export default function registerApiRoutes(server) {\n    return 0;\n}")
}

func TestGenerate_Idempotent(t *testing.T) {
	models := emittest.Models(t, apiTree)
	assert.Equal(t, Generate(models).Files, Generate(models).Files)
}
