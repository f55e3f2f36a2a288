package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"jobstatus-api/internal/config"
	"jobstatus-api/internal/database"
	"jobstatus-api/internal/logger"
	"jobstatus-api/internal/provision"
	"jobstatus-api/internal/service"
)

// readPassword is swapped out in tests.
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func main() {
	slog.SetDefault(slog.New(logger.NewPrettyHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(os.Args[1:]); err != nil {
		slog.Error("provisioning failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("provision", flag.ContinueOnError)
	configPath := fs.String("config", "config/app-config.dev.json", "path to the JSON config file")
	drop := fs.Bool("drop", false, "drop all tables before migrating")
	demo := fs.Bool("demo", false, "seed the demo user and sample jobs")
	username := fs.String("username", "", "add a user with this username")
	email := fs.String("email", "", "email of the user to add")
	password := fs.String("password", "", "password of the user to add (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := provision.Options{
		Drop:     *drop,
		Demo:     *demo,
		Username: *username,
		Email:    *email,
		Password: *password,
	}
	if opts.Username != "" && opts.Password == "" {
		secret, err := readPassword(fmt.Sprintf("Password for %s: ", opts.Username))
		if err != nil {
			return err
		}
		opts.Password = secret
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, database.Options{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		CreateIfMissing: true,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	return provision.New(db, service.NewPasswordHasher(cfg.BcryptCost)).Run(ctx, opts)
}
