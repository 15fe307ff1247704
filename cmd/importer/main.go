package main

import (
	"context"
	"flag"
	"log"
	"os"

	"studiosite/internal/config"
	"studiosite/internal/db"
	"studiosite/internal/importer"
	custrepo "studiosite/internal/repository/customer"
)

func main() {
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	var file string
	flag.StringVar(&file, "file", "", "path to the customer CSV")
	flag.Parse()
	if file == "" {
		logger.Fatal("usage: importer -file customers.csv")
	}

	f, err := os.Open(file)
	if err != nil {
		logger.Fatalf("open %s: %v", file, err)
	}
	defer f.Close()

	cfg := config.FromEnv()
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	res, err := importer.NewCSV(f, custrepo.NewPostgres(pool, logger)).Run(ctx)
	if err != nil {
		logger.Fatalf("import: %v (imported %d, skipped %d)", err, res.Imported, res.Skipped)
	}
	logger.Printf("import finished: %d imported, %d skipped", res.Imported, res.Skipped)
}
