package matching

import "errors"

var (
	ErrMissingOrderID     = errors.New("missing order id")
	ErrFractionalQuantity = errors.New("quantity must be a whole number")
	ErrQuantityOutOfRange = errors.New("quantity out of range")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrRouterStopped      = errors.New("router stopped")
)
