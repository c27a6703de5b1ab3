package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/emit/emittest"
)

const eventTree = `
-- send_welcome_email.rs --
pub struct SendWelcomeEmail {
    pub correlation_id: CorrelationId<String>,
    pub user_id: String,
    pub email: String,
    pub execute_at: Option<ExecuteAt<Timestamp>>,
}
-- process_video.rs --
pub struct ProcessVideo {
    pub video_id: String,
    pub formats: Vec<String>,
}
`

func TestGenerate_Variants(t *testing.T) {
	res := Generate(emittest.Models(t, eventTree))
	require.Len(t, res.Files, 1)
	assert.Equal(t, 2, res.Models)

	out := emittest.Content(t, res, emit.RootElm, ElmPath)
	assert.Contains(t, out, "port module Generated.Events exposing (..)")
	assert.Contains(t, out, `type EventPayload
    = SendWelcomeEmail SendWelcomeEmailData
    | ProcessVideo ProcessVideoData`)
	assert.Contains(t, out, `type alias SendWelcomeEmailData =
    { userId : String
    , email : String
    }`)
	assert.NotContains(t, out, "correlationId")
	assert.NotContains(t, out, "executeAt")
	assert.Contains(t, out, `        SendWelcomeEmail data ->
            Encode.object
                [ ( "type", Encode.string "SendWelcomeEmail" )
                , ( "data", encodeSendWelcomeEmailData data )
                ]`)
	assert.Contains(t, out, `( "formats", (Encode.list Encode.string) item.formats )`)
}

func TestGenerate_SchedulingFunnelsIntoOneEncoder(t *testing.T) {
	out := emittest.Content(t, Generate(emittest.Models(t, eventTree)), emit.RootElm, ElmPath)

	assert.Contains(t, out, `pushEvent : EventPayload -> Cmd msg
pushEvent payload =
    eventPush
        { event = encodeEventPayload payload
        , delay = 0
        , schedule = Nothing
        }`)
	assert.Contains(t, out, `scheduleEvent : Int -> EventPayload -> Cmd msg
scheduleEvent delaySeconds payload =`)
	assert.Contains(t, out, "        , delay = delaySeconds\n")
	assert.Contains(t, out, `cronEvent : String -> EventPayload -> Cmd msg
cronEvent cronExpression payload =`)
	assert.Contains(t, out, "        , schedule = Just cronExpression\n")
	assert.Contains(t, out, "port eventPush : EventRequest -> Cmd msg")
}

func TestGenerate_EmptyDomain(t *testing.T) {
	res := Generate(nil)
	require.Len(t, res.Files, 1)

	out := emittest.Content(t, res, emit.RootElm, ElmPath)
	assert.Contains(t, out, "type EventPayload\n    = NoEvents")
	assert.Contains(t, out, `encodeEventPayload payload =
    case payload of
        NoEvents ->
            Encode.object []`)
	assert.Contains(t, out, "pushEvent : EventPayload -> Cmd msg")
	assert.Contains(t, out, "encodeMaybe : (a -> Encode.Value) -> Maybe a -> Encode.Value")
}

func TestGenerate_Idempotent(t *testing.T) {
	models := emittest.Models(t, eventTree)
	assert.Equal(t, Generate(models).Files, Generate(models).Files)
}
