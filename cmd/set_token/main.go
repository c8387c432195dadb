// Command set_token stores the StudyMate API bearer token in the local
// database, encrypted at rest. The daemon reads it on every request, so
// a token saved while the daemon runs takes effect immediately.
// Usage: go run cmd/set_token/main.go -token <token> [-db path/to/sync.db]
package main

import (
	"flag"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnioa/studymate-sync/internal/config"
	"github.com/vnioa/studymate-sync/internal/tokenstore"
)

func main() {
	dbPath := flag.String("db", config.DefaultDatabasePath, "path to the sync database file")
	token := flag.String("token", "", "API bearer token to store")
	remove := flag.Bool("remove", false, "delete the stored token instead")
	flag.Parse()

	if *token == "" && !*remove {
		log.Fatal("either -token or -remove is required")
	}

	db, err := gorm.Open(sqlite.Open(*dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	store, err := tokenstore.New(db, tokenstore.KeyConfig{})
	if err != nil {
		log.Fatalf("Failed to initialize token store: %v", err)
	}

	if *remove {
		if err := store.DeleteToken(); err != nil {
			log.Fatalf("Failed to delete token: %v", err)
		}
		log.Println("Token deleted")
		return
	}

	if err := store.SaveToken(*token); err != nil {
		log.Fatalf("Failed to save token: %v", err)
	}
	log.Println("Token saved")
}
