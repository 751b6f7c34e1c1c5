package schema

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// Side is the direction of a trade.
type Side uint8

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "buy":
		*s = SideBuy
	case "sell":
		*s = SideSell
	default:
		return errors.Errorf("unknown side: %q", string(b))
	}
	return nil
}

// Transaction is an immutable trade record. Transactions of an account are ordered by
// (CreatedAt, Seq).
type Transaction struct {
	ID        string
	AccountID string
	Seq       uint64
	Symbol    string
	Side      Side
	Shares    int64
	Price     decimal.Decimal
	Total     decimal.Decimal
	CreatedAt time.Time
}

// TransferDirection moves money between the cash and savings balances.
type TransferDirection uint8

const (
	TransferUnknown TransferDirection = iota
	TransferCashToSavings
	TransferSavingsToCash
)

func (d TransferDirection) String() string {
	switch d {
	case TransferCashToSavings:
		return "cash_to_savings"
	case TransferSavingsToCash:
		return "savings_to_cash"
	default:
		return "unknown"
	}
}

func (d TransferDirection) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *TransferDirection) UnmarshalText(b []byte) error {
	switch string(b) {
	case "cash_to_savings":
		*d = TransferCashToSavings
	case "savings_to_cash":
		*d = TransferSavingsToCash
	default:
		return errors.Errorf("unknown transfer direction: %q", string(b))
	}
	return nil
}

// Transfer is an immutable record of a cash/savings movement.
type Transfer struct {
	ID        string
	AccountID string
	Seq       uint64
	Direction TransferDirection
	Amount    decimal.Decimal
	CreatedAt time.Time
}
