package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix44/executionreport"
	fix44nos "github.com/quickfixgo/fix44/newordersingle"
	"github.com/quickfixgo/fix44/ordercancelreject"
	"github.com/quickfixgo/fix44/ordercancelreplacerequest"
	"github.com/quickfixgo/fix44/ordercancelrequest"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/quickfix/log/file"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type InitiatorApp struct {
	*quickfix.MessageRouter
	symbol string
	sugar  *zap.SugaredLogger
}

func newInitiatorApp(symbol string) *InitiatorApp {
	a := &InitiatorApp{
		MessageRouter: quickfix.NewMessageRouter(),
		symbol:        symbol,
		sugar:         zap.S().Named("fixclient"),
	}
	a.AddRoute(executionreport.Route(a.onExecutionReport))
	a.AddRoute(ordercancelreject.Route(a.onOrderCancelReject))
	return a
}

func (a *InitiatorApp) OnCreate(sessionID quickfix.SessionID) {}

func (a *InitiatorApp) OnLogon(sessionID quickfix.SessionID) {
	a.sugar.Infow("logon success", "session", sessionID.String())
	go a.runScript(sessionID)
}

func (a *InitiatorApp) OnLogout(sessionID quickfix.SessionID)                       {}
func (a *InitiatorApp) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}
func (a *InitiatorApp) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}
func (a *InitiatorApp) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}
func (a *InitiatorApp) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return a.Route(msg, sessionID)
}

func (a *InitiatorApp) onExecutionReport(msg executionreport.ExecutionReport, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	clOrdID, _ := msg.GetClOrdID()
	execType, _ := msg.GetExecType()
	status, _ := msg.GetOrdStatus()
	cum, _ := msg.GetCumQty()
	leaves, _ := msg.GetLeavesQty()
	lastQty, _ := msg.GetLastQty()
	lastPx, _ := msg.GetLastPx()
	text, _ := msg.GetText()
	a.sugar.Infow("execution report",
		"cl_ord_id", clOrdID,
		"exec_type", execType,
		"status", status,
		"cum_qty", cum.String(),
		"leaves_qty", leaves.String(),
		"last_qty", lastQty.String(),
		"last_px", lastPx.String(),
		"text", text,
	)
	return nil
}

func (a *InitiatorApp) onOrderCancelReject(msg ordercancelreject.OrderCancelReject, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	clOrdID, _ := msg.GetClOrdID()
	text, _ := msg.GetText()
	a.sugar.Warnw("cancel rejected", "cl_ord_id", clOrdID, "text", text)
	return nil
}

// === Message sender ===

func (a *InitiatorApp) newOrder(sessionID quickfix.SessionID, side enum.Side, ordType enum.OrdType, tif enum.TimeInForce, qty int64, price string) string {
	clOrdID := uuid.NewString()
	order := fix44nos.New(
		field.NewClOrdID(clOrdID),
		field.NewSide(side),
		field.NewTransactTime(time.Now()),
		field.NewOrdType(ordType))
	order.SetSymbol(a.symbol)
	order.SetOrderQty(decimal.NewFromInt(qty), 0)
	if ordType == enum.OrdType_LIMIT {
		order.SetPrice(decimal.RequireFromString(price), 2)
	}
	if tif != "" {
		order.SetTimeInForce(tif)
	}
	a.send(order, sessionID)
	return clOrdID
}

func (a *InitiatorApp) amend(sessionID quickfix.SessionID, origClOrdID string, side enum.Side, qty int64) string {
	clOrdID := uuid.NewString()
	msg := ordercancelreplacerequest.New(
		field.NewOrigClOrdID(origClOrdID),
		field.NewClOrdID(clOrdID),
		field.NewSide(side),
		field.NewTransactTime(time.Now()),
		field.NewOrdType(enum.OrdType_LIMIT))
	msg.SetSymbol(a.symbol)
	msg.SetOrderQty(decimal.NewFromInt(qty), 0)
	a.send(msg, sessionID)
	return clOrdID
}

func (a *InitiatorApp) cancel(sessionID quickfix.SessionID, origClOrdID string, side enum.Side) {
	msg := ordercancelrequest.New(
		field.NewOrigClOrdID(origClOrdID),
		field.NewClOrdID(uuid.NewString()),
		field.NewSide(side),
		field.NewTransactTime(time.Now()))
	msg.SetSymbol(a.symbol)
	a.send(msg, sessionID)
}

func (a *InitiatorApp) send(msg quickfix.Messagable, sessionID quickfix.SessionID) {
	if err := quickfix.SendToTarget(msg, sessionID); err != nil {
		a.sugar.Errorw("send failed", "error", err)
	}
}

// runScript walks one order through each command the engine accepts.
func (a *InitiatorApp) runScript(sessionID quickfix.SessionID) {
	step := func() { time.Sleep(200 * time.Millisecond) }

	sell := a.newOrder(sessionID, enum.Side_SELL, enum.OrdType_LIMIT, "", 100, "10.00")
	step()
	// partial fill of the resting sell
	a.newOrder(sessionID, enum.Side_BUY, enum.OrdType_LIMIT, "", 40, "10.00")
	step()
	sell = a.amend(sessionID, sell, enum.Side_SELL, 30)
	step()
	// takes the last 30, drops 20
	a.newOrder(sessionID, enum.Side_BUY, enum.OrdType_LIMIT, enum.TimeInForce_IMMEDIATE_OR_CANCEL, 50, "10.00")
	step()
	// sell is filled, so this is rejected
	a.cancel(sessionID, sell, enum.Side_SELL)
	step()

	rest := a.newOrder(sessionID, enum.Side_SELL, enum.OrdType_LIMIT, "", 20, "11.00")
	step()
	a.newOrder(sessionID, enum.Side_BUY, enum.OrdType_MARKET, "", 5, "")
	step()
	a.cancel(sessionID, rest, enum.Side_SELL)
	a.sugar.Info("script done")
}

func main() {
	var cfgPath, symbol string
	flag.StringVar(&cfgPath, "config-file", "config/fixclient.cfg", "quickfix session settings")
	flag.StringVar(&symbol, "symbol", "ABC", "symbol to trade")
	flag.Parse()

	logger := logging.Init("fixclient", "info")
	defer logger.Sync() // nolint

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		zap.S().Fatalf("read %s: %v", cfgPath, err)
	}
	settings, err := quickfix.ParseSettings(bytes.NewReader(data))
	if err != nil {
		zap.S().Fatalf("parse settings: %v", err)
	}

	logFactory, err := file.NewLogFactory(settings)
	if err != nil {
		zap.S().Fatalf("log factory: %v", err)
	}
	initiator, err := quickfix.NewInitiator(newInitiatorApp(symbol), quickfix.NewMemoryStoreFactory(), settings, logFactory)
	if err != nil {
		zap.S().Fatalf("create initiator: %v", err)
	}
	if err := initiator.Start(); err != nil {
		zap.S().Fatalf("start initiator: %v", err)
	}
	defer initiator.Stop()
	fmt.Println("FIX client started. Press Ctrl+C to exit.")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
}
