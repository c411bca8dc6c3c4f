package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Billy-Davies-2/psl-draft/internal/auth"
	"github.com/Billy-Davies-2/psl-draft/internal/draft"
	"github.com/Billy-Davies-2/psl-draft/internal/logger"
	"github.com/Billy-Davies-2/psl-draft/internal/pubsub"
)

func init() {
	logger.Init("error")
}

type fixture struct {
	engine *draft.Engine
	bus    *pubsub.PubSub
	client *Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	engine, err := draft.New(nil, draft.Options{})
	require.NoError(t, err)
	bus := pubsub.New()

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor))
	Register(gs, NewServer(engine, auth.NewGate(engine, "admin123"), bus))
	go gs.Serve(lis)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		gs.Stop()
		bus.Close()
	})
	return &fixture{engine: engine, bus: bus, client: NewClient(conn)}
}

func (f *fixture) call(t *testing.T, method string, req map[string]interface{}) (map[string]interface{}, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if req == nil {
		req = map[string]interface{}{}
	}
	out, err := f.client.Call(ctx, method, req)
	if err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

func requireCode(t *testing.T, want codes.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, status.Code(err), err.Error())
}

func TestDraftOverGRPC(t *testing.T) {
	f := newFixture(t)

	_, err := f.call(t, MethodPick, map[string]interface{}{"playerId": "P1001"})
	requireCode(t, codes.FailedPrecondition, err)

	_, err = f.call(t, MethodStartDraft, map[string]interface{}{"rounds": 1, "adminPassword": "nope"})
	requireCode(t, codes.PermissionDenied, err)

	turn, err := f.call(t, MethodStartDraft, map[string]interface{}{"rounds": 1, "adminPassword": "admin123"})
	require.NoError(t, err)
	assert.Equal(t, "Lahore Qalandars", turn["team"])
	assert.EqualValues(t, 4, turn["remaining"])

	_, err = f.call(t, MethodPick, map[string]interface{}{"playerId": "P1002", "team": "Karachi Kings"})
	requireCode(t, codes.FailedPrecondition, err)

	picked, err := f.call(t, MethodPick, map[string]interface{}{"playerId": "P1001", "team": "Lahore Qalandars"})
	require.NoError(t, err)
	assert.Contains(t, picked["message"], "Lahore Qalandars picked Babar Azam")

	turn, err = f.call(t, MethodCurrentTurn, nil)
	require.NoError(t, err)
	assert.Equal(t, "Karachi Kings", turn["team"])

	undone, err := f.call(t, MethodUndo, nil)
	require.NoError(t, err)
	assert.Equal(t, "Undone: Babar Azam removed from Lahore Qalandars", undone["message"])

	_, err = f.call(t, MethodUndo, nil)
	requireCode(t, codes.FailedPrecondition, err)

	skipped, err := f.call(t, MethodSkip, nil)
	require.NoError(t, err)
	assert.Equal(t, "Karachi Kings", skipped["team"])

	state, err := f.call(t, MethodGetState, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, state["players"])
	assert.Len(t, state["teams"], 4)

	_, err = f.call(t, MethodReset, map[string]interface{}{"adminPassword": "admin123"})
	require.NoError(t, err)
	_, err = f.call(t, MethodCurrentTurn, nil)
	requireCode(t, codes.FailedPrecondition, err)
}

func TestPreDraftBuyOverGRPC(t *testing.T) {
	f := newFixture(t)

	_, err := f.call(t, MethodPreDraftBuy, map[string]interface{}{
		"team": "Karachi Kings", "password": "wrong", "playerId": "P1004",
	})
	requireCode(t, codes.PermissionDenied, err)

	_, err = f.call(t, MethodPreDraftBuy, map[string]interface{}{
		"team": "Nowhere", "password": "x", "playerId": "P1004",
	})
	requireCode(t, codes.InvalidArgument, err)

	bought, err := f.call(t, MethodPreDraftBuy, map[string]interface{}{
		"team": "Karachi Kings", "password": "karachi123", "playerId": "P1004",
	})
	require.NoError(t, err)
	assert.Contains(t, bought["message"], "Karachi Kings bought Naseem Shah")

	available, err := f.call(t, MethodListPlayers, map[string]interface{}{"available": true})
	require.NoError(t, err)
	for _, p := range available["players"].([]interface{}) {
		assert.NotEqual(t, "P1004", p.(map[string]interface{})["id"])
	}
}

func TestAdminOperationsOverGRPC(t *testing.T) {
	f := newFixture(t)

	registered, err := f.call(t, MethodRegisterPlayer, map[string]interface{}{
		"name": "Saim Ayub", "rating": 84, "price": 300000, "country": "Pakistan",
	})
	require.NoError(t, err)
	assert.Equal(t, "P1011", registered["id"])
	assert.Equal(t, "Diamond", registered["category"])

	_, err = f.call(t, MethodRegisterPlayer, map[string]interface{}{"name": "Half", "rating": 70.5, "price": 1})
	requireCode(t, codes.InvalidArgument, err)

	rated, err := f.call(t, MethodSetRating, map[string]interface{}{
		"playerId": "P1011", "rating": 95, "adminPassword": "admin123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Platinum", rated["category"])

	team, err := f.call(t, MethodUpdateBudget, map[string]interface{}{
		"team": "Multan Sultans", "budget": 6000000, "adminPassword": "admin123",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 6000000, team["maxBudget"])

	res, err := f.call(t, MethodUpdateBudgets, map[string]interface{}{
		"adminPassword": "admin123",
		"budgets":       map[string]interface{}{"Lahore Qalandars": 5500000, "Unknown": 1},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res["updated"])

	teams, err := f.call(t, MethodListTeams, nil)
	require.NoError(t, err)
	assert.Len(t, teams["teams"], 4)
}

func TestStreamEventsFiltersTypes(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := f.client.StreamEvents(ctx, pubsub.EventDraftStart)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.bus.SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = f.call(t, MethodRegisterPlayer, map[string]interface{}{"name": "Filtered", "rating": 55, "price": 1000})
	require.NoError(t, err)
	_, err = f.call(t, MethodStartDraft, map[string]interface{}{"rounds": 2, "adminPassword": "admin123"})
	require.NoError(t, err)

	msg, err := stream.Recv()
	require.NoError(t, err)
	event := msg.AsMap()
	assert.Equal(t, pubsub.EventDraftStart, event["type"])
	payload := event["payload"].(map[string]interface{})
	assert.Equal(t, "Lahore Qalandars", payload["team"])
	assert.EqualValues(t, 8, payload["remaining"])
}

func TestIntFieldRejectsFractions(t *testing.T) {
	in, err := toStruct(map[string]interface{}{"n": 1.5, "s": "x", "ok": 7})
	require.NoError(t, err)

	_, err = intField(in, "n")
	assert.Error(t, err)
	_, err = intField(in, "s")
	assert.Error(t, err)
	n, err := intField(in, "ok")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	n, err = intField(in, "missing")
	require.NoError(t, err)
	assert.Zero(t, n)
}
