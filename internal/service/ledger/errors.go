package ledger

import "errors"

var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrEmptyCode       = errors.New("empty ticket code")
	ErrInvalidPurchase = errors.New("invalid purchase")
	ErrDuplicateTicket = errors.New("duplicate ticket id")
)
