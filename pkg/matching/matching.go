package matching

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/joripage/matching-engine/pkg/cache"
	eventstore "github.com/joripage/matching-engine/pkg/matching/event_store"
	"github.com/joripage/matching-engine/pkg/matching/model"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MatchingService validates raw commands, runs them on the per-symbol
// engines and fans the outcome out to the event store, trade sinks, snapshot
// cache and gateways.
//
// Commands of one symbol must be serialised by the caller; Router does that.
type MatchingService struct {
	engines *orderbook.EngineManager
	events  eventstore.EventStore

	sinks    []TradeSink
	cache    cache.SnapshotCache
	gateways []OrderGateway

	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

type Option func(*MatchingService)

func WithTradeSink(sink TradeSink) Option {
	return func(s *MatchingService) { s.sinks = append(s.sinks, sink) }
}

func WithSnapshotCache(c cache.SnapshotCache) Option {
	return func(s *MatchingService) { s.cache = c }
}

func WithOrderGateway(g OrderGateway) Option {
	return func(s *MatchingService) { s.gateways = append(s.gateways, g) }
}

// WithClock sets the clock used when a command carries no transact time.
func WithClock(now func() time.Time) Option {
	return func(s *MatchingService) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *MatchingService) { s.logger = logger }
}

func NewMatchingService(engines *orderbook.EngineManager, events eventstore.EventStore, opts ...Option) *MatchingService {
	s := &MatchingService{
		engines: engines,
		events:  events,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddOrderGateway registers g after construction, for gateways that need the
// service themselves.
func (s *MatchingService) AddOrderGateway(g OrderGateway) {
	s.gateways = append(s.gateways, g)
}

// Start drops snapshots left by an earlier process, then starts gateways.
func (s *MatchingService) Start(ctx context.Context) error {
	if s.cache != nil {
		if err := s.cache.Reset(ctx); err != nil {
			return fmt.Errorf("reset snapshot cache: %w", err)
		}
	}
	for _, g := range s.gateways {
		if err := g.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs a wire command.
func (s *MatchingService) Execute(ctx context.Context, cmd *model.Command) (*model.SubmitResult, error) {
	switch {
	case cmd.Action == model.CommandSubmit && cmd.Submit != nil:
		return s.SubmitOrder(ctx, cmd.Submit)
	case cmd.Action == model.CommandAmend && cmd.Amend != nil:
		return nil, s.AmendOrder(ctx, cmd.Amend)
	case cmd.Action == model.CommandCancel && cmd.Cancel != nil:
		return nil, s.CancelOrder(ctx, cmd.Cancel)
	}
	return nil, fmt.Errorf("action %q: %w", cmd.Action, ErrUnknownCommand)
}

// ResolveSymbol returns the symbol cmd runs on. Amends and cancels without a
// symbol take the symbol of the order they address, which must already be
// known to the event store.
func (s *MatchingService) ResolveSymbol(cmd *model.Command) (string, error) {
	if symbol := cmd.Symbol(); symbol != "" {
		return symbol, nil
	}

	var orderID, origRequestID string
	switch {
	case cmd.Action == model.CommandAmend && cmd.Amend != nil:
		orderID, origRequestID = cmd.Amend.OrderID, cmd.Amend.OrigRequestID
	case cmd.Action == model.CommandCancel && cmd.Cancel != nil:
		orderID, origRequestID = cmd.Cancel.OrderID, cmd.Cancel.OrigRequestID
	default:
		return "", nil
	}

	if orderID == "" && origRequestID != "" {
		orderID = s.events.GetOrderID(origRequestID)
	}
	if latest, ok := s.events.Latest(orderID); ok && latest.Symbol != "" {
		return latest.Symbol, nil
	}
	return "", fmt.Errorf("order %q request %q: %w", orderID, origRequestID, orderbook.ErrOrderNotFound)
}

func (s *MatchingService) SubmitOrder(ctx context.Context, req *model.AddOrder) (*model.SubmitResult, error) {
	if req.OrderID == "" {
		return nil, ErrMissingOrderID
	}
	if _, ok := s.events.Latest(req.OrderID); ok || s.events.GetOrderID(req.OrderID) != "" {
		return nil, fmt.Errorf("order %s: %w", req.OrderID, orderbook.ErrDuplicateOrderID)
	}

	ts := req.TransactTime
	if ts.IsZero() {
		ts = s.now()
	}

	qty, err := wholeQuantity(req.Quantity)
	if err != nil {
		s.reject(req, ts, err)
		return nil, err
	}
	order, err := orderbook.NewOrder(req.Type, req.OrderID, req.Symbol, req.Side, qty, req.Price, ts)
	if err != nil {
		s.reject(req, ts, err)
		return nil, err
	}

	trades, err := s.engines.Submit(order)
	if err != nil {
		s.reject(req, ts, err)
		return nil, err
	}
	result := &model.SubmitResult{Order: *order, Trades: trades}

	cur := &model.OrderEvent{
		OrderID:   order.ID,
		RequestID: order.ID,
		Symbol:    order.Symbol,
		Side:      order.Side,
		Type:      order.Type,
		ExecType:  model.ExecTypeNew,
		Status:    orderbook.StatusNew,
		Price:     order.Price,
		Quantity:  qty,
		LeavesQty: qty,
		LastPrice: decimal.Zero,
		Timestamp: ts,
	}
	if order.Type == orderbook.LIMIT {
		cur.Status = orderbook.StatusResting
	}
	s.record(ctx, cur)

	for _, t := range trades {
		tradeID := s.newID()

		if resting, ok := s.events.Latest(t.RestingOrderID); ok {
			ev := resting.Next(model.ExecTypeTrade, ts)
			ev.ApplyFill(tradeID, t.Qty, t.Price)
			s.record(ctx, ev)
		} else {
			s.logger.Warn("resting order has no events", zap.String("order_id", t.RestingOrderID))
		}

		cur = cur.Next(model.ExecTypeTrade, ts)
		cur.ApplyFill(tradeID, t.Qty, t.Price)
		s.record(ctx, cur)

		s.publish(ctx, model.NewTradeEvent(tradeID, t))
	}

	if order.Status == orderbook.StatusDiscarded {
		cur = cur.Next(model.ExecTypeExpired, ts)
		cur.Status = orderbook.StatusDiscarded
		cur.LeavesQty = 0
		s.record(ctx, cur)
	}

	s.refreshSnapshot(ctx, order.Symbol)
	return result, nil
}

func (s *MatchingService) AmendOrder(ctx context.Context, req *model.AmendOrder) error {
	orderID, latest, symbol, err := s.resolve(req.OrderID, req.OrigRequestID, req.Symbol)
	if err != nil {
		return err
	}
	qty, err := wholeQuantity(req.NewQuantity)
	if err != nil {
		return err
	}
	if err := s.engines.Amend(symbol, orderID, qty); err != nil {
		return err
	}

	if latest != nil {
		ev := latest.Next(model.ExecTypeReplaced, s.now())
		ev.RequestID = req.RequestID
		ev.OrigRequestID = req.OrigRequestID
		ev.LeavesQty = qty
		ev.Quantity = ev.CumQuantity + qty
		s.record(ctx, ev)
	}

	s.refreshSnapshot(ctx, symbol)
	return nil
}

func (s *MatchingService) CancelOrder(ctx context.Context, req *model.CancelOrder) error {
	orderID, latest, symbol, err := s.resolve(req.OrderID, req.OrigRequestID, req.Symbol)
	if err != nil {
		return err
	}
	if err := s.engines.Cancel(symbol, orderID); err != nil {
		return err
	}

	if latest != nil {
		ev := latest.Next(model.ExecTypeCanceled, s.now())
		ev.RequestID = req.RequestID
		ev.OrigRequestID = req.OrigRequestID
		ev.Status = orderbook.StatusCancelled
		ev.LeavesQty = 0
		s.record(ctx, ev)
	}

	s.refreshSnapshot(ctx, symbol)
	return nil
}

// Snapshot reads the cached book of symbol, falling back to the engine. Only
// commands write the cache, so a read never replaces a newer snapshot.
func (s *MatchingService) Snapshot(ctx context.Context, symbol string) (orderbook.Snapshot, error) {
	if s.cache != nil {
		snap, ok, err := s.cache.Get(ctx, symbol)
		if err == nil && ok {
			return snap, nil
		}
		if err != nil {
			s.logger.Warn("read snapshot cache", zap.String("symbol", symbol), zap.Error(err))
		}
	}

	return s.engines.Snapshot(symbol)
}

// OrderState returns the latest lifecycle event of orderID.
func (s *MatchingService) OrderState(orderID string) (*model.OrderEvent, bool) {
	return s.events.Latest(orderID)
}

func (s *MatchingService) OrderEvents(orderID string) []*model.OrderEvent {
	return s.events.Events(orderID)
}

// resolve finds the order an amend or cancel targets, by id or by the request
// id that created or last changed it.
func (s *MatchingService) resolve(orderID, origRequestID, symbol string) (string, *model.OrderEvent, string, error) {
	if orderID == "" && origRequestID != "" {
		orderID = s.events.GetOrderID(origRequestID)
	}
	if orderID == "" {
		return "", nil, "", fmt.Errorf("request %s: %w", origRequestID, orderbook.ErrOrderNotFound)
	}

	latest, ok := s.events.Latest(orderID)
	if !ok {
		latest = nil
	} else {
		if !latest.Open() {
			return "", nil, "", fmt.Errorf("order %s is %s: %w", orderID, latest.Status, orderbook.ErrOrderNotFound)
		}
		if symbol == "" {
			symbol = latest.Symbol
		}
	}
	if symbol == "" {
		return "", nil, "", fmt.Errorf("order %s: %w", orderID, orderbook.ErrOrderNotFound)
	}
	return orderID, latest, symbol, nil
}

func (s *MatchingService) reject(req *model.AddOrder, ts time.Time, cause error) {
	s.events.AddEvent(&model.OrderEvent{
		OrderID:   req.OrderID,
		RequestID: req.OrderID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		ExecType:  model.ExecTypeRejected,
		Status:    orderbook.StatusRejected,
		Price:     req.Price,
		Text:      cause.Error(),
		Timestamp: ts,
	})
	s.logger.Info("order rejected", zap.String("order_id", req.OrderID), zap.Error(cause))
}

func (s *MatchingService) record(ctx context.Context, ev *model.OrderEvent) {
	s.events.AddEvent(ev)
	for _, g := range s.gateways {
		g.OnOrderReport(ctx, ev)
	}
}

func (s *MatchingService) publish(ctx context.Context, ev *model.TradeEvent) {
	for _, sink := range s.sinks {
		if err := sink.PublishTrade(ctx, ev); err != nil {
			s.logger.Error("publish trade", zap.String("trade_id", ev.TradeID), zap.Error(err))
		}
	}
}

func (s *MatchingService) refreshSnapshot(ctx context.Context, symbol string) {
	if s.cache == nil {
		return
	}
	snap, err := s.engines.Snapshot(symbol)
	if err != nil {
		return
	}
	s.storeSnapshot(ctx, snap)
}

func (s *MatchingService) storeSnapshot(ctx context.Context, snap orderbook.Snapshot) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, snap); err != nil {
		s.logger.Warn("write snapshot cache", zap.String("symbol", snap.Symbol), zap.Error(err))
	}
}

var (
	maxQuantity = decimal.NewFromInt(math.MaxInt64)
	minQuantity = decimal.NewFromInt(math.MinInt64)
)

// wholeQuantity converts q without wrapping; sign checks stay with the
// order constructors and the book.
func wholeQuantity(q decimal.Decimal) (int64, error) {
	if !q.Equal(q.Truncate(0)) {
		return 0, fmt.Errorf("quantity %s: %w", q, ErrFractionalQuantity)
	}
	if q.GreaterThan(maxQuantity) || q.LessThan(minQuantity) {
		return 0, fmt.Errorf("quantity %s: %w", q, ErrQuantityOutOfRange)
	}
	return q.IntPart(), nil
}
