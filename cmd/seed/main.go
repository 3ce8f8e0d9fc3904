package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/pawclinic-backend/internal/app"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/seed"
)

type fileList []string

func (l *fileList) String() string { return strings.Join(*l, ",") }
func (l *fileList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var files fileList
	var dryRun bool
	flag.Var(&files, "file", "seed YAML document (repeatable); the built-in catalog is used when omitted")
	flag.BoolVar(&dryRun, "dry-run", false, "validate the documents without writing")
	flag.Parse()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	var doc *seed.Document
	if len(files) > 0 {
		doc, err = seed.LoadFiles(ctx, files...)
	} else {
		doc, err = seed.Default()
	}
	if err != nil {
		fmt.Printf("load seed: %v\n", err)
		os.Exit(1)
	}
	if dryRun {
		fmt.Printf("[dry-run] %d categories, %d products, %d services, %d rooms, admin=%t\n",
			len(doc.Categories), len(doc.Products), len(doc.Services), len(doc.Rooms), doc.Admin != nil)
		return
	}

	cfg, err := app.LoadConfig(log)
	if err != nil {
		fmt.Printf("load config: %v\n", err)
		os.Exit(1)
	}
	application, err := app.New(ctx, log, cfg)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	res, err := seed.Apply(ctx, application.DB, log, doc, os.Getenv("SEED_ADMIN_PASSWORD"))
	if err != nil {
		fmt.Printf("seed: %v\n", err)
		application.Close()
		os.Exit(1)
	}
	fmt.Printf("created %d categories, %d products, %d services, %d rooms (admin created: %t)\n",
		res.Categories, res.Products, res.Services, res.Rooms, res.Admin)
}
