package fixgateway

import (
	"context"
	"sync"

	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/joripage/matching-engine/pkg/matching/model"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"
)

type FixGateway struct {
	cfg      *FixGatewayConfig
	app      *Application
	acceptor *quickfix.Acceptor
	router   *matching.Router
	logger   *zap.Logger

	// order id -> quickfix.SessionID
	sessionMapping sync.Map

	send func(quickfix.Messagable, quickfix.SessionID) error
}

type FixGatewayConfig struct {
	ConfigFilepath string
}

func NewFixGateway(cfg *FixGatewayConfig, router *matching.Router, logger *zap.Logger) *FixGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FixGateway{
		cfg:    cfg,
		router: router,
		logger: logger.Named("fix"),
		send:   quickfix.SendToTarget,
	}
}

func (s *FixGateway) Start(ctx context.Context) error {
	s.app = newApplication(s)
	acceptor, err := startAcceptor(s.cfg.ConfigFilepath, s.app)
	if err != nil {
		s.logger.Error("start fix acceptor", zap.Error(err))
		return err
	}
	s.acceptor = acceptor
	return nil
}

func (s *FixGateway) Stop() {
	if s.acceptor != nil {
		s.acceptor.Stop()
	}
}

func (s *FixGateway) AddOrder(msg *NewOrderSingle) {
	req, err := toAddOrder(msg)
	if err != nil {
		s.sendTo(rejectReport(msg, err), msg.SessionID)
		return
	}

	// register before dispatch so the first report finds its session
	_, known := s.sessionMapping.LoadOrStore(req.OrderID, msg.SessionID)
	cmd := &model.Command{Action: model.CommandSubmit, Submit: req}
	s.router.Dispatch(context.Background(), cmd, func(_ *model.SubmitResult, err error) {
		if err != nil {
			if !known {
				s.sessionMapping.Delete(req.OrderID)
			}
			s.sendTo(rejectReport(msg, err), msg.SessionID)
		}
	})
}

func (s *FixGateway) AmendOrder(msg *OrderCancelReplaceRequest) {
	cmd := &model.Command{
		Action: model.CommandAmend,
		Amend: &model.AmendOrder{
			RequestID:     msg.ClOrdID,
			OrigRequestID: msg.OrigClOrdID,
			Symbol:        msg.Symbol,
			NewQuantity:   msg.OrderQty,
		},
	}
	s.router.Dispatch(context.Background(), cmd, func(_ *model.SubmitResult, err error) {
		if err != nil {
			s.sendTo(cancelReject(msg.ClOrdID, msg.OrigClOrdID, enum.CxlRejResponseTo_ORDER_CANCEL_REPLACE_REQUEST, err), msg.SessionID)
		}
	})
}

func (s *FixGateway) CancelOrder(msg *OrderCancelRequest) {
	cmd := &model.Command{
		Action: model.CommandCancel,
		Cancel: &model.CancelOrder{
			RequestID:     msg.ClOrdID,
			OrigRequestID: msg.OrigClOrdID,
			Symbol:        msg.Symbol,
		},
	}
	s.router.Dispatch(context.Background(), cmd, func(_ *model.SubmitResult, err error) {
		if err != nil {
			s.sendTo(cancelReject(msg.ClOrdID, msg.OrigClOrdID, enum.CxlRejResponseTo_ORDER_CANCEL_REQUEST, err), msg.SessionID)
		}
	})
}

// OnOrderReport sends ev to the session that entered the order. Orders from
// other gateways have no session and are skipped.
func (s *FixGateway) OnOrderReport(ctx context.Context, ev *model.OrderEvent) {
	v, ok := s.sessionMapping.Load(ev.OrderID)
	if !ok {
		return
	}
	if !ev.Open() && ev.ExecType != model.ExecTypeNew {
		s.sessionMapping.Delete(ev.OrderID)
	}
	s.sendTo(orderEventToExecutionReport(ev), v.(quickfix.SessionID))
}

func (s *FixGateway) sendTo(msg quickfix.Messagable, sessionID quickfix.SessionID) {
	if err := s.send(msg, sessionID); err != nil {
		s.logger.Warn("send fix message", zap.String("session", sessionID.String()), zap.Error(err))
	}
}
