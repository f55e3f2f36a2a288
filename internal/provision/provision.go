// Package provision prepares a store for the API: schema, demo data and
// user accounts.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"jobstatus-api/internal/database"
	"jobstatus-api/internal/model"
	"jobstatus-api/internal/repository"
)

var ErrMissingEmail = errors.New("email is required when adding a user")

type passwordHasher interface {
	Hash(plain string) (string, error)
}

type Options struct {
	Drop     bool
	Demo     bool
	Username string
	Email    string
	Password string
}

type Provisioner struct {
	db     *database.DB
	users  *repository.UserRepository
	jobs   *repository.JobRepository
	hasher passwordHasher
	now    func() time.Time
}

func New(db *database.DB, hasher passwordHasher) *Provisioner {
	return &Provisioner{
		db:     db,
		users:  repository.NewUserRepository(db),
		jobs:   repository.NewJobRepository(db),
		hasher: hasher,
		now:    time.Now,
	}
}

// Run applies opts in order: drop, migrate, seed, add user.
func (p *Provisioner) Run(ctx context.Context, opts Options) error {
	if opts.Drop {
		if err := p.db.DropSchema(ctx); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
		slog.Info("schema dropped")
	}

	if err := p.db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	if opts.Demo {
		if err := p.SeedDemo(ctx); err != nil {
			return err
		}
	}

	if opts.Username != "" {
		if _, err := p.AddUser(ctx, opts.Username, opts.Email, opts.Password); err != nil {
			return err
		}
	}

	return nil
}

func (p *Provisioner) AddUser(ctx context.Context, username, email, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" {
		return model.User{}, model.ErrInvalidInput
	}
	if email == "" {
		return model.User{}, ErrMissingEmail
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password for %s: %w", username, err)
	}

	user, err := p.users.Create(ctx, model.User{Username: username, Email: email, PasswordHash: hash})
	if err != nil {
		return model.User{}, fmt.Errorf("add user %s: %w", username, err)
	}

	slog.Info("user added", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// SeedDemo adds the demo account and two sample jobs, one still running.
func (p *Provisioner) SeedDemo(ctx context.Context) error {
	if _, err := p.AddUser(ctx, "jsmith", "john.smith@gmail.com", "verySecure123"); err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}

	now := p.now()
	started := model.FormatTimestamp(now.Add(-2 * time.Hour))
	ended := model.FormatTimestamp(now)

	jobs := []model.Job{
		{Program: "EQModelCalculator.sh", StartTime: started, Params: "-asofdate 20250920 -model VOL"},
		{Program: "LogArchiveAndReset.sh", StartTime: started, EndTime: &ended, Params: "-e PRD"},
	}
	for _, job := range jobs {
		if err := p.jobs.Create(ctx, job); err != nil {
			return fmt.Errorf("seed demo jobs: %w", err)
		}
	}

	slog.Info("demo data seeded", "jobs", len(jobs))
	return nil
}
