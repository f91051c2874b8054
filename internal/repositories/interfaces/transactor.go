package interfaces

import "context"

// Transactor runs fn as one all-or-nothing unit of work. Every
// multi-entity mutation (status + totals + payment + event) goes
// through this; partial application is never an acceptable intermediate
// state. Repositories pick the transaction up from the context.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
