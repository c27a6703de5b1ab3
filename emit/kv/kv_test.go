package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/emit/emittest"
)

const kvTree = `
-- user_session.rs --
#[kv(ttl = 600)]
pub struct UserSession {
    pub user_id: String,
    pub login_time: Timestamp,
    pub permissions: Vec<String>,
}
-- scratch.rs --
pub struct Scratch {
    pub note: Option<String>,
}
`

func TestTTL(t *testing.T) {
	models := emittest.Models(t, kvTree+`
-- broken.rs --
#[kv(ttl = "soon")]
pub struct Broken { pub x: i32 }
`)
	require.Len(t, models, 3)
	assert.Equal(t, 600, TTL(models[0]))
	assert.Equal(t, DefaultTTL, TTL(models[1]))
	assert.Equal(t, DefaultTTL, TTL(models[2]))
}

func TestGenerate_ElmModule(t *testing.T) {
	res := Generate(emittest.Models(t, kvTree))
	require.Len(t, res.Files, 2)
	assert.Equal(t, 2, res.Models)

	out := emittest.Content(t, res, emit.RootElm, ElmPath)
	assert.Contains(t, out, "port module Generated.KV exposing (..)")
	assert.Contains(t, out, "port kvResult : (KvResponse -> msg) -> Sub msg")
	assert.Contains(t, out, `type alias UserSession =
    { userId : String
    , loginTime : Int
    , permissions : List String
    }`)
	assert.Contains(t, out, `setUserSession : String -> UserSession -> Cmd msg
setUserSession key value =
    kvSet
        { id = "set_user_session_" ++ key
        , model = "user_session"
        , key = key
        , value = encodeUserSession value
        , ttl = 600
        }`)
	assert.Contains(t, out, "getUserSession : String -> Cmd msg")
	assert.Contains(t, out, "deleteScratch : String -> Cmd msg")
	assert.Contains(t, out, "existsScratch : String -> Cmd msg")
	assert.Contains(t, out, `|> decodeField "login_time" timestampDecoder`)
	assert.Contains(t, out, "        , ttl = 3600\n")
}

func TestGenerate_Store(t *testing.T) {
	out := emittest.Content(t, Generate(emittest.Models(t, kvTree)), emit.RootJS, JSPath)

	assert.Contains(t, out, "export default function createKvFunctions(kvClient) {")
	assert.Contains(t, out, `    const setUserSession = async (userSession, key, host, ttl = 600) => {
        try {
            const tenantKey = ` + "`${host}:user_session:${key}`" + `;
            await kvClient.setex(tenantKey, ttl, JSON.stringify(userSession));
            return true;
        } catch (error) {
            console.error('Error setting UserSession:', error);
            return false;
        }
    };`)
	assert.Contains(t, out, "const setScratch = async (scratch, key, host, ttl = 3600) => {")
	assert.Contains(t, out, "const updateTtlScratch = async (key, ttl, host) => {")
	assert.Contains(t, out, "export async function cleanupExpiredKeys(host, kvClient) {")
	assert.Contains(t, out, "export async function getTenantKeys(host, kvClient) {")
	assert.Contains(t, out, `        setUserSession,
        getUserSession,
        deleteUserSession,
        existsUserSession,
        updateTtlUserSession,
        setScratch,`)
}

func TestGenerate_EmptyDomain(t *testing.T) {
	res := Generate(nil)
	require.Len(t, res.Files, 2)

	elmOut := emittest.Content(t, res, emit.RootElm, ElmPath)
	assert.Contains(t, elmOut, "port kvSet : KvSetRequest -> Cmd msg")
	assert.Contains(t, elmOut, "decodeField : String -> Decode.Decoder a -> Decode.Decoder (a -> b) -> Decode.Decoder b")

	jsOut := emittest.Content(t, res, emit.RootJS, JSPath)
	assert.Contains(t, jsOut, "export default function createKvFunctions(kvClient) {\n    return {};\n}")
	assert.Contains(t, jsOut, "await kvClient.expire(key, 3600);")
}

func TestGenerate_Idempotent(t *testing.T) {
	models := emittest.Models(t, kvTree)
	assert.Equal(t, Generate(models).Files, Generate(models).Files)
}
