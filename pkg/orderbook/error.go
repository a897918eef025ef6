package orderbook

import "errors"

var (
	// construction
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrNonPositivePrice    = errors.New("price must be positive")
	ErrInvalidSide         = errors.New("invalid side")

	// dispatch
	ErrUndefinedOrderType = errors.New("undefined order type")
	ErrUndefinedOrderSide = errors.New("undefined order side")

	ErrOrderNotFound      = errors.New("order not found")
	ErrQuantityNotReduced = errors.New("new quantity must be smaller than current quantity")
	ErrDuplicateOrderID   = errors.New("duplicate order id")
	ErrUnknownSymbol      = errors.New("unknown symbol")
)
