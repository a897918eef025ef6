package fixgateway

import (
	"testing"
	"time"

	"github.com/joripage/matching-engine/pkg/matching"
	eventstore "github.com/joripage/matching-engine/pkg/matching/event_store"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	msgType string
	status  string
	session quickfix.SessionID
}

func newTestGateway(t *testing.T) (*FixGateway, chan sent) {
	t.Helper()
	svc := matching.NewMatchingService(orderbook.NewEngineManager(nil, nil), eventstore.NewInMemoryEventStore())
	router := matching.NewRouter(svc, 2, 64, nil)
	gw := NewFixGateway(&FixGatewayConfig{}, router, nil)
	svc.AddOrderGateway(gw)

	out := make(chan sent, 64)
	gw.send = func(m quickfix.Messagable, sessionID quickfix.SessionID) error {
		msg := m.ToMessage()
		msgType, _ := msg.Header.GetString(35)
		status, _ := msg.Body.GetString(39)
		out <- sent{msgType: msgType, status: status, session: sessionID}
		return nil
	}
	return gw, out
}

func receive(t *testing.T, out chan sent) sent {
	t.Helper()
	select {
	case s := <-out:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no message sent")
	}
	return sent{}
}

func TestGatewayRoutesReportsToSessions(t *testing.T) {
	gw, out := newTestGateway(t)
	seller := quickfix.SessionID{BeginString: "FIX.4.4", SenderCompID: "ME", TargetCompID: "SELLER"}
	buyer := quickfix.SessionID{BeginString: "FIX.4.4", SenderCompID: "ME", TargetCompID: "BUYER"}

	gw.AddOrder(&NewOrderSingle{
		SessionID: seller, ClOrdID: "S1", Symbol: "AAA", OrdType: enum.OrdType_LIMIT,
		Side: enum.Side_SELL, Price: decimal.NewFromInt(10), OrderQty: decimal.NewFromInt(5),
	})
	ack := receive(t, out)
	assert.Equal(t, seller, ack.session)
	assert.Equal(t, string(enum.MsgType_EXECUTION_REPORT), ack.msgType)
	assert.Equal(t, string(enum.OrdStatus_NEW), ack.status)

	gw.AddOrder(&NewOrderSingle{
		SessionID: buyer, ClOrdID: "B1", Symbol: "AAA", OrdType: enum.OrdType_MARKET,
		Side: enum.Side_BUY, OrderQty: decimal.NewFromInt(5),
	})

	got := map[quickfix.SessionID][]string{}
	for i := 0; i < 3; i++ {
		s := receive(t, out)
		got[s.session] = append(got[s.session], s.status)
	}
	assert.Equal(t, []string{string(enum.OrdStatus_FILLED)}, got[seller])
	assert.Equal(t, []string{string(enum.OrdStatus_NEW), string(enum.OrdStatus_FILLED)}, got[buyer])
}

func TestGatewayRejects(t *testing.T) {
	gw, out := newTestGateway(t)
	session := quickfix.SessionID{BeginString: "FIX.4.4", SenderCompID: "ME", TargetCompID: "CLIENT"}

	gw.AddOrder(&NewOrderSingle{
		SessionID: session, ClOrdID: "C1", Symbol: "AAA", OrdType: enum.OrdType_LIMIT,
		Side: enum.Side_BUY, Price: decimal.NewFromInt(10), OrderQty: decimal.Zero,
	})
	rej := receive(t, out)
	assert.Equal(t, string(enum.MsgType_EXECUTION_REPORT), rej.msgType)
	assert.Equal(t, string(enum.OrdStatus_REJECTED), rej.status)

	gw.CancelOrder(&OrderCancelRequest{SessionID: session, ClOrdID: "C2", OrigClOrdID: "nope", Symbol: "AAA"})
	cxl := receive(t, out)
	assert.Equal(t, string(enum.MsgType_ORDER_CANCEL_REJECT), cxl.msgType)

	_, ok := gw.sessionMapping.Load("C1")
	require.False(t, ok)
}

func TestGatewayAmendAndCancel(t *testing.T) {
	gw, out := newTestGateway(t)
	session := quickfix.SessionID{BeginString: "FIX.4.4", SenderCompID: "ME", TargetCompID: "CLIENT"}

	gw.AddOrder(&NewOrderSingle{
		SessionID: session, ClOrdID: "C1", Symbol: "AAA", OrdType: enum.OrdType_LIMIT,
		Side: enum.Side_BUY, Price: decimal.NewFromInt(10), OrderQty: decimal.NewFromInt(10),
	})
	receive(t, out)

	gw.AmendOrder(&OrderCancelReplaceRequest{SessionID: session, ClOrdID: "C2", OrigClOrdID: "C1", Symbol: "AAA", OrderQty: decimal.NewFromInt(4)})
	assert.Equal(t, string(enum.OrdStatus_NEW), receive(t, out).status)

	gw.AmendOrder(&OrderCancelReplaceRequest{SessionID: session, ClOrdID: "C3", OrigClOrdID: "C2", Symbol: "AAA", OrderQty: decimal.NewFromInt(8)})
	assert.Equal(t, string(enum.MsgType_ORDER_CANCEL_REJECT), receive(t, out).msgType)

	gw.CancelOrder(&OrderCancelRequest{SessionID: session, ClOrdID: "C4", OrigClOrdID: "C2", Symbol: "AAA"})
	assert.Equal(t, string(enum.OrdStatus_CANCELED), receive(t, out).status)

	_, ok := gw.sessionMapping.Load("C1")
	assert.False(t, ok)
}
