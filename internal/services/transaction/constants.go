package transaction

// Pagination defaults for transaction history.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)
