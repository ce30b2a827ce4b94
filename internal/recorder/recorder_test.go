package recorder

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tickrecorder/config"
	"tickrecorder/internal/buffer"
	"tickrecorder/internal/tick"
	"tickrecorder/pkg/gateway"
)

type fakeGateway struct {
	handler    func([]byte)
	subscribed []string
	connected  bool
	closed     bool
}

func (g *fakeGateway) Connect() error { g.connected = true; return nil }
func (g *fakeGateway) Listen()        {}
func (g *fakeGateway) Close() error   { g.closed = true; return nil }

func (g *fakeGateway) SetMessageHandler(h func([]byte)) { g.handler = h }

func (g *fakeGateway) Subscribe(symbol string) error {
	g.subscribed = append(g.subscribed, symbol)
	return nil
}

func (g *fakeGateway) deliver(t *testing.T, msgType string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	frame, err := json.Marshal(gateway.Envelope{Type: msgType, Data: data})
	require.NoError(t, err)
	g.handler(frame)
}

func testRecorder(t *testing.T) (*Recorder, *fakeGateway, *buffer.Memory) {
	t.Helper()
	buf := buffer.NewMemory()
	gw := &fakeGateway{}
	cfg := config.RecorderConfig{
		ExcludePrefixes: []string{"bb", "CY", "wr"},
	}
	rec := New(buf, gw, cfg, zap.NewNop())
	require.NoError(t, rec.Start(context.Background(), "20240102"))
	return rec, gw, buf
}

func TestContractRegistrationAndSubscription(t *testing.T) {
	rec, gw, _ := testRecorder(t)

	gw.deliver(t, gateway.TypeContract, gateway.ContractMessage{
		Symbol: "rb2405", Exchange: "SHFE", Product: "futures", Size: 10, PriceTick: 1,
	})
	assert.Equal(t, []string{"rb2405"}, gw.subscribed)
	assert.Equal(t, 1, rec.ContractCount())

	// Re-announcing the same contract does not resubscribe.
	gw.deliver(t, gateway.TypeContract, gateway.ContractMessage{
		Symbol: "rb2405", Exchange: "SHFE", Product: "futures", Size: 10, PriceTick: 1,
	})
	assert.Equal(t, []string{"rb2405"}, gw.subscribed)
}

func TestOnlyFuturesAreRecorded(t *testing.T) {
	rec, gw, _ := testRecorder(t)

	gw.deliver(t, gateway.TypeContract, gateway.ContractMessage{
		Symbol: "rb2405C3900", Exchange: "SHFE", Product: "option",
	})
	gw.deliver(t, gateway.TypeContract, gateway.ContractMessage{
		Symbol: "wr2405", Exchange: "SHFE", Product: "futures",
	})
	assert.Empty(t, gw.subscribed)
	assert.Equal(t, 0, rec.ContractCount())
}

func TestUnknownContractTickDroppedSilently(t *testing.T) {
	_, gw, buf := testRecorder(t)

	gw.deliver(t, gateway.TypeTick, gateway.TickMessage{Symbol: "rb2405", LastPrice: 3899.5})

	drained, err := buf.DrainAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drained, "ticks before contract metadata are not buffered")
}

func TestTickIsSerializedAndBuffered(t *testing.T) {
	_, gw, buf := testRecorder(t)

	gw.deliver(t, gateway.TypeContract, gateway.ContractMessage{
		Symbol: "rb2405", Exchange: "SHFE", Product: "futures", Size: 10, PriceTick: 1,
	})
	gw.deliver(t, gateway.TypeTick, gateway.TickMessage{
		Symbol: "rb2405", Exchange: "SHFE", Timestamp: 1704159015250,
		LastPrice: 3899.5, Volume: 120340,
	})

	drained, err := buf.DrainAll(context.Background())
	require.NoError(t, err)
	require.Len(t, drained["rb2405"], 1)

	fields := strings.Split(drained["rb2405"][0], ",")
	require.Len(t, fields, len(tick.Header))
	assert.Equal(t, "20240102", fields[0]) // trading day from the session clock
	assert.Equal(t, "rb2405", fields[4])
	assert.Equal(t, "SHFE", fields[5])
	assert.Equal(t, "3899.5", fields[6])
	assert.Equal(t, "10", fields[41])
}

func TestMalformedFramesAreIgnored(t *testing.T) {
	_, gw, buf := testRecorder(t)

	gw.handler([]byte("not json"))
	gw.handler([]byte(`{"type":"tick","data":"not an object"}`))
	gw.handler([]byte(`{"type":"heartbeat"}`))

	drained, err := buf.DrainAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drained)
}

func TestStopClosesGateway(t *testing.T) {
	rec, gw, _ := testRecorder(t)
	rec.Stop()
	assert.True(t, gw.closed)
}
