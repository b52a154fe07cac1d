package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/api"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/auth"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/config"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/database"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/logging"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/metrics"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/service"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/store"
)

const version = "1.0.0"

var configInit = config.LoadConfig

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("api", pflag.ContinueOnError)
	fs.String("config", "app.yml", "Path to configuration file")
	fs.String("host", "0.0.0.0", "Listen host (API_HOST)")
	fs.Int("port", 5000, "Listen port (API_PORT)")
	fs.String("auth-type", config.AuthDisabled, "Authentication strategy (AUTH_TYPE); empty disables the gate")
	fs.String("log-level", "info", "Log level")
	fs.Bool("db-reset", false, "Drop and recreate the database schema on start")
	fs.String("seed-email", "", "Create this user on start")
	fs.String("seed-password", "", "Password for --seed-email")
	return fs
}

// closers releases what initializeAPI opened, in reverse order.
type closers []func() error

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i]())
	}
	return errors.Join(errs...)
}

func initializeAPI(ctx context.Context, flags *pflag.FlagSet, stdout, stderr io.Writer) (*api.Api, closers, error) {
	configPath, _ := flags.GetString("config")
	cfg, err := configInit(configPath, flags)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New(cfg.Log, stderr)
	slog.SetDefault(logger)

	var cleanup closers
	fail := func(err error) (*api.Api, closers, error) {
		cleanup.Close()
		return nil, nil, err
	}

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fail(err)
	}
	cleanup = append(cleanup, db.Close)

	newBlob, err := blobFactory(ctx, cfg.Storage)
	if err != nil {
		return fail(err)
	}

	var users store.UserStore
	switch cfg.Auth.UserBackend {
	case config.BackendSQL:
		users = store.NewSQLUserStore(db)
	default:
		users, err = store.NewFileUserStore(ctx, newBlob(store.UserDocument))
		if err != nil {
			return fail(err)
		}
	}

	var sessions store.SessionStore
	var sweeper *store.Sweeper
	if cfg.Auth.Type == config.AuthSessionDB {
		switch cfg.Auth.SessionBackend {
		case config.BackendSQL:
			sessions = store.NewSQLSessionStore(db)
		case config.BackendRedis:
			client, err := database.NewRedis(ctx, cfg.Redis)
			if err != nil {
				return fail(err)
			}
			cleanup = append(cleanup, client.Close)
			sessions = store.NewRedisSessionStore(client, cfg.Redis.KeyPrefix)
		default:
			sessions, err = store.NewFileSessionStore(ctx, newBlob(store.SessionDocument))
			if err != nil {
				return fail(err)
			}
		}
		if deleter, ok := sessions.(store.ExpiredSessionDeleter); ok && cfg.Auth.SweepInterval > 0 {
			sweeper = store.NewSweeper(deleter, cfg.Auth.SweepInterval, logger)
		}
	}

	hasher, err := auth.NewHasher(cfg.Auth)
	if err != nil {
		return fail(err)
	}
	authenticator, err := auth.New(cfg.Auth, auth.Deps{Users: users, Hasher: hasher, Sessions: sessions})
	if err != nil {
		return fail(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	accounts := service.NewUserService(
		store.NewSQLUserStore(db),
		auth.BcryptHasher{Cost: cfg.Auth.BcryptCost},
		logger,
	)

	if email, _ := flags.GetString("seed-email"); email != "" {
		password, _ := flags.GetString("seed-password")
		if err := seedUser(ctx, users, hasher, email, password, stdout); err != nil {
			return fail(err)
		}
	}

	a, err := api.NewApi(*cfg, api.Deps{
		Logger:   logger,
		Metrics:  metrics.New(reg),
		Auth:     authenticator,
		Users:    users,
		Hasher:   hasher,
		Accounts: accounts,
		Sweeper:  sweeper,
	})
	if err != nil {
		return fail(err)
	}
	return a, cleanup, nil
}

// blobFactory returns a constructor for named JSON documents on the
// configured storage driver.
func blobFactory(ctx context.Context, cfg config.StorageConfig) (func(name string) store.Blob, error) {
	switch cfg.Driver {
	case "memory":
		return func(name string) store.Blob { return store.NewMemBlob(name) }, nil
	case "s3":
		client, err := store.NewS3Client(ctx, store.S3Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return func(name string) store.Blob {
			return store.NewS3Blob(client, cfg.S3.Bucket, cfg.S3.Prefix, name)
		}, nil
	}
	return func(name string) store.Blob {
		return &store.LocalBlob{Path: filepath.Join(cfg.Dir, name)}
	}, nil
}

// seedUser creates a user unless the email is taken, then prints the
// Basic Authorization value for it.
func seedUser(ctx context.Context, users store.UserStore, hasher auth.Hasher, email, password string, out io.Writer) error {
	if password == "" {
		return errors.New("--seed-password is required with --seed-email")
	}
	digest, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	u := &models.User{Email: email, HashedPassword: digest}
	if err := users.Add(ctx, u); err != nil && !errors.Is(err, store.ErrDuplicateEmail) {
		return fmt.Errorf("failed to seed user: %w", err)
	}
	header := base64.StdEncoding.EncodeToString([]byte(email + ":" + password))
	fmt.Fprintf(out, "Basic %s\n", header)
	return nil
}

func run(args []string, stdout, stderr io.Writer) error {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := initializeAPI(ctx, flags, stdout, stderr)
	if err != nil {
		return err
	}
	defer cleanup.Close()

	slog.Info("starting user auth API", "version", version)
	return a.Serve(ctx)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
