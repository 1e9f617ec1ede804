package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	dbpkg "github.com/Hussein-Mazeh/cybervision-unlock/internal/db"
)

func main() {
	path := flag.String("db", "data/unlock.db", "SQLite database path")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*path), 0o700); err != nil {
		log.Fatalf("create database directory: %v", err)
	}

	db, err := dbpkg.Open(*path)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer dbpkg.Close(db)

	if err := dbpkg.Migrate(context.Background(), db); err != nil {
		log.Fatalf("initialize database: %v", err)
	}
	if err := dbpkg.EnsurePerm0600(db.Path()); err != nil {
		log.Fatalf("restrict database permissions: %v", err)
	}
}
