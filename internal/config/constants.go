package config

// Default paths for local databases
const (
	// DefaultDatabasePath is the default path for the local sync database
	DefaultDatabasePath = "./studymate-sync.db"
)
