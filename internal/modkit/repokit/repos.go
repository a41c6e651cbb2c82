// Package repokit provides common types and helpers for repository implementations
package repokit

import (
	"docbridge/internal/platform/store"
)

// Queryer is the minimal read and write surface for SQL repos
type Queryer = store.RowQuerier

// TxRunner can execute a function inside a transaction
type TxRunner = store.TxRunner
