package constants

// StoreBackend selects the template store implementation.
type StoreBackend string

// Stable values (STORE_BACKEND env var takes these exact strings).
const (
	BackendMemory   StoreBackend = "memory"
	BackendSQLite   StoreBackend = "sqlite"
	BackendPostgres StoreBackend = "postgres"
)
