package server

// Config is the recipe API server configuration.
type Config struct {
	// Address to listen on (e.g., ":8000")
	ListenAddr string

	// DBPath is the path to the SQLite feedback database.
	// Use ":memory:" for an in-memory database, or empty for in-memory.
	DBPath string

	// DefaultTopK is used when a chat request has no top_k. Zero means 3.
	DefaultTopK int
}
