package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/catalog/pkg/binder"
	"github.com/shishobooks/catalog/pkg/bookinstances"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/config"
	"github.com/shishobooks/catalog/pkg/database"
	"github.com/shishobooks/catalog/pkg/migrations"
	"github.com/shishobooks/catalog/pkg/models"
)

type seedInstance struct {
	Imprint string `koanf:"imprint"`
	Status  string `koanf:"status"`
	DueBack string `koanf:"due_back"`
}

type seedBook struct {
	Title     string         `koanf:"title"`
	Author    string         `koanf:"author"`
	Summary   string         `koanf:"summary"`
	ISBN      string         `koanf:"isbn"`
	Instances []seedInstance `koanf:"instances"`
}

func main() {
	ctx := context.Background()
	log := logger.New()

	var opts struct {
		Titles []string `short:"t" long:"title" description:"Title of a book to insert (repeatable)"`
		Author string   `short:"a" long:"author" description:"Author of the books given with --title"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) > 1 || (len(args) == 0 && len(opts.Titles) == 0) {
		fmt.Println("go run ./cmd/scripts/seed [--title <title>...] [path/to/books.yaml]")
		os.Exit(1)
	}

	var seeds []seedBook
	if len(args) == 1 {
		k := koanf.New(".")
		if err := k.Load(file.Provider(args[0]), yaml.Parser()); err != nil {
			log.Err(err).Fatal("seed file error")
		}
		if err := k.Unmarshal("books", &seeds); err != nil {
			log.Err(err).Fatal("seed file error")
		}
	}
	for _, title := range opts.Titles {
		seeds = append(seeds, seedBook{Title: title, Author: opts.Author})
	}

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	if _, err := migrations.BringUpToDate(ctx, db); err != nil {
		log.Err(err).Fatal("migrations error")
	}

	b, err := binder.New()
	if err != nil {
		log.Err(err).Fatal("binder error")
	}

	bookService := books.NewService(db)
	formService := bookinstances.NewFormService(bookinstances.NewService(db), bookService, b)

	for _, seed := range seeds {
		book := &models.Book{
			Title:   seed.Title,
			Author:  optional(seed.Author),
			Summary: optional(seed.Summary),
			ISBN:    optional(seed.ISBN),
		}
		if err := bookService.CreateBook(ctx, book); err != nil {
			log.Err(err).Fatal("create book error")
		}
		fmt.Printf("Created %q (%s)\n", book.Title, book.URL())

		for _, inst := range seed.Instances {
			// Copies go through the same checks as the create form.
			sub, err := formService.SubmitForCreate(ctx, &bookinstances.InstancePayload{
				Book:    book.ID,
				Imprint: inst.Imprint,
				Status:  inst.Status,
				DueBack: inst.DueBack,
			})
			if err != nil {
				log.Err(err).Fatal("create book instance error")
			}
			if sub.Page != nil {
				log.Warn("skipped invalid book instance", logger.Data{"title": book.Title, "errors": sub.Page.Errors.Error()})
				continue
			}
			fmt.Printf("  Created copy %s\n", sub.RedirectURL)
		}
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
