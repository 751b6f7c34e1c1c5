/*
Store persists ledger state behind repository interfaces.

# Module
  - memory: map-backed store for tests and single-process demos
  - gorm: durable store over postgres or sqlite

Commits are atomic per call. Account rows carry a version; a commit whose account version does
not match the stored one fails with exception.ErrConcurrentUpdate and writes nothing.
*/
package store

import (
	"papertrade/internal/schema"
)

// TradeCommit is everything a buy or sell writes. Account.Version is the version the ledger
// read; the store persists Version+1.
type TradeCommit struct {
	Account     schema.Account
	Holding     schema.Holding
	HoldingGone bool
	Transaction schema.Transaction
}

// TransferCommit is everything a transfer writes.
type TransferCommit struct {
	Account  schema.Account
	Transfer schema.Transfer
}
