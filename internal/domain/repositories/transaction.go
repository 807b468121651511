package repositories

import "context"

// TxFn runs within a transaction; the transaction travels in the context.
type TxFn func(ctx context.Context) error

// TransactionManager runs functions inside a database transaction. Document
// save and delete operations that touch several rows go through it.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
