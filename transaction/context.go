// Package transaction carries an opaque per-operation context through
// storage and index calls. Locking, undo bookkeeping, and WAL-log buffering
// live outside this repository's scope; TransactionContext is left as the
// thin seam those collaborators would attach to.
package transaction

// TransactionContext identifies the caller on whose behalf a storage or
// index operation runs. Executors and index implementations pass it through
// without inspecting it.
type TransactionContext struct {
	ID uint64
}

func NewTransactionContext(id uint64) *TransactionContext {
	return &TransactionContext{ID: id}
}
