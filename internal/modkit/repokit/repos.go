// Package repokit holds the seams service repos are written against so
// they never import a driver
package repokit

import "oracle/internal/platform/store"

type (
	// Queryer is the read and write surface a bound repo uses
	Queryer = store.RowQuerier

	// TxRunner is a Queryer that can also open transactions
	TxRunner = store.TxRunner

	// Rows are the result set of a query
	Rows = store.Rows

	// Row is a single row result
	Row = store.Row

	// CommandTag reports rows affected by a write
	CommandTag = store.CommandTag
)
