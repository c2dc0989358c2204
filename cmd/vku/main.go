package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/TTTT0803/VKUMentor-App/internal/client"
	"github.com/TTTT0803/VKUMentor-App/internal/config"
	"github.com/TTTT0803/VKUMentor-App/internal/db"
	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
	"github.com/TTTT0803/VKUMentor-App/internal/seed"
)

var (
	email    string
	password string
	memory   bool
	verbose  bool
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "vku",
	Short: "Cliente de terminal do VKU Mentor",
	Long: `Cliente de terminal do VKU Mentor.

Autentica com e-mail e senha, resolve o papel do usuário e mostra as
listagens paginadas de mentores e da comunidade.

  vku login --email mentee1@gmail.com --password 123456
  vku mentors --pages 2 --filter "mentor 1"
  vku posts --memory`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(level)
	},
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("erro: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&email, "email", os.Getenv("VKU_EMAIL"), "e-mail de login (VKU_EMAIL)")
	rootCmd.PersistentFlags().StringVar(&password, "password", os.Getenv("VKU_PASSWORD"), "senha (VKU_PASSWORD)")
	rootCmd.PersistentFlags().BoolVar(&memory, "memory", false, "usa banco em memória com dados de exemplo")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "logs detalhados")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "tempo máximo do comando")

	rootCmd.AddCommand(loginCmd, whoamiCmd, mentorsCmd, pendingCmd, postsCmd)
}

// signIn abre o banco, inicia o app e faz login com as credenciais das flags.
func signIn(ctx context.Context) (*client.App, client.Navigation, func(), error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, client.Navigation{}, nil, errors.New("informe --email e --password")
	}

	store, closeStore, err := openStore(ctx)
	if err != nil {
		return nil, client.Navigation{}, nil, err
	}

	cfg, err := config.LoadClient()
	if err != nil {
		closeStore()
		return nil, client.Navigation{}, nil, err
	}

	app := client.New(store, client.Options{Pages: cfg.Pages, LookupTimeout: cfg.RoleLookupTimeout})
	app.Start(ctx)
	cleanup := func() {
		app.Close()
		closeStore()
	}

	navigation, err := app.Login(ctx, email, password)
	if err != nil {
		cleanup()
		return nil, client.Navigation{}, nil, err
	}
	return app, navigation, cleanup, nil
}

func openStore(ctx context.Context) (docstore.Store, func(), error) {
	if memory {
		store := docstore.NewMemoryStore()
		if _, err := seed.Run(ctx, store, seed.DefaultOptions()); err != nil {
			return nil, nil, fmt.Errorf("seed: %w", err)
		}
		return store, func() {}, nil
	}

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		return nil, nil, errors.New("defina DB_DSN ou use --memory")
	}
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	return docstore.NewPostgresStore(pool), pool.Close, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
