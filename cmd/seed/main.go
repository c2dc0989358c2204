package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/TTTT0803/VKUMentor-App/internal/db"
	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
	"github.com/TTTT0803/VKUMentor-App/internal/seed"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	store := docstore.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("falha ao aplicar schema")
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "run":
		err = db.WithTx(ctx, pool, func(ctx context.Context, tx pgx.Tx) error {
			return runSeed(ctx, store.WithTx(tx), args)
		})
		if err != nil {
			log.Fatal().Err(err).Msg("falha ao popular banco")
		}
	case "list":
		if err := runList(ctx, store, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao listar documentos")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "seed CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  seed run [--password 123456] [--mentors 9] [--pending 3] [--posts 9]")
	fmt.Fprintln(os.Stderr, "  seed list --collection mentor_info [--limit 20]")
}

func runSeed(ctx context.Context, store docstore.Store, args []string) error {
	opts := seed.DefaultOptions()

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(&opts.Password, "password", opts.Password, "senha dos usuários de exemplo")
	fs.IntVar(&opts.Admins, "admins", opts.Admins, "quantidade de administradores")
	fs.IntVar(&opts.Mentees, "mentees", opts.Mentees, "quantidade de mentees")
	fs.IntVar(&opts.Mentors, "mentors", opts.Mentors, "quantidade de mentores")
	fs.IntVar(&opts.Pending, "pending", opts.Pending, "mentores aguardando aprovação")
	fs.IntVar(&opts.Posts, "posts", opts.Posts, "posts da comunidade")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.Pending > opts.Mentors {
		return errors.New("pending não pode exceder mentors")
	}

	sum, err := seed.Run(ctx, store, opts)
	if err != nil {
		return err
	}

	output, _ := json.MarshalIndent(sum, "", "  ")
	fmt.Println(string(output))
	return nil
}

func runList(ctx context.Context, store docstore.Querier, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		collection = fs.String("collection", "", "coleção (ex.: mentor_info)")
		limit      = fs.Int("limit", 20, "máximo de documentos")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *collection == "" {
		return errors.New("collection é obrigatório")
	}

	docs, err := store.Query(ctx, docstore.Query{Collection: *collection, Limit: *limit})
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Println("nenhum documento")
		return nil
	}

	encoded, _ := json.MarshalIndent(docs, "", "  ")
	fmt.Println(string(encoded))
	return nil
}
