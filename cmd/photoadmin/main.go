package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"

	"github.com/mixelka/photoadmin/internal/admin"
	"github.com/mixelka/photoadmin/internal/config"
	"github.com/mixelka/photoadmin/internal/configure"
	"github.com/mixelka/photoadmin/internal/database"
	"github.com/mixelka/photoadmin/internal/gateway"
	"github.com/mixelka/photoadmin/internal/provision"
	"github.com/mixelka/photoadmin/internal/registry"
)

func main() {
	app := &cli.App{
		Name:  "photoadmin",
		Usage: "manage cloud storage accounts for the photo download service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "account",
				Usage:   "account email",
				Aliases: []string{"a"},
				EnvVars: []string{"PHOTOADMIN_ACCOUNT"},
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "account password",
				Aliases: []string{"p"},
				EnvVars: []string{"PHOTOADMIN_PASSWORD"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "register",
				Usage:  "register a new administrator",
				Action: runRegister,
			},
			{
				Name:   "login",
				Usage:  "verify administrator credentials",
				Action: runLogin,
			},
			{
				Name:   "add-account",
				Usage:  "link a cloud storage account, prompting for a 2FA code if required",
				Action: runAddAccount,
			},
			{
				Name:   "list",
				Usage:  "list linked accounts and their sync state",
				Action: runList,
			},
			{
				Name:  "del-account",
				Usage: "unlink a cloud storage account",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "skip the confirmation prompt",
					},
				},
				Action: runDelAccount,
			},
			{
				Name:  "configure",
				Usage: "edit the download configuration of a linked account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "folder-format",
						Usage: "folder layout as a Go date pattern, e.g. 2006/01/02",
					},
					&cli.BoolFlag{
						Name:  "remove-deleted",
						Usage: "remove local photos that were deleted upstream",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "number of parallel download workers",
					},
				},
				Action: runConfigure,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env holds the wired components shared by all subcommands
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *database.DB
	gw       *gateway.Client
	registry *registry.Registry
}

func setup(ctx context.Context) (*env, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	gw := gateway.NewClient(gateway.Config{
		BaseURL: cfg.AuthorityURL,
		Timeout: cfg.HTTPTimeout,
	})

	reg := registry.New(gw, db, logger)
	if err := reg.Restore(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	e := &env{cfg: cfg, logger: logger, db: db, gw: gw, registry: reg}
	return e, func() { db.Close() }, nil
}

func credentials(c *cli.Context) (string, string, error) {
	account := c.String("account")
	password := c.String("password")
	if account == "" || password == "" {
		return "", "", fmt.Errorf("--account and --password are required")
	}
	return account, password, nil
}

func runRegister(c *cli.Context) error {
	e, closeEnv, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer closeEnv()

	account, password, err := credentials(c)
	if err != nil {
		return err
	}

	session := admin.NewSession(e.gw, e.logger)
	if err := session.Register(c.Context, account, password); err != nil {
		return err
	}

	fmt.Printf("administrator %s registered, you can now log in\n", account)
	return nil
}

func runLogin(c *cli.Context) error {
	e, closeEnv, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer closeEnv()

	account, password, err := credentials(c)
	if err != nil {
		return err
	}

	session := admin.NewSession(e.gw, e.logger)
	if err := session.Login(c.Context, account, password); err != nil {
		return err
	}

	fmt.Printf("logged in as %s\n", account)
	return nil
}

func runAddAccount(c *cli.Context) error {
	e, closeEnv, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer closeEnv()

	account, password, err := credentials(c)
	if err != nil {
		return err
	}

	attempt := provision.NewAttempt(e.gw, e.registry, e.logger)
	if err := attempt.SetCredentials(account, password); err != nil {
		return err
	}

	phase, err := attempt.Submit(c.Context)
	if err != nil {
		return err
	}

	if phase == provision.AwaitingTwoFactor {
		code, err := promptLine("two-factor code sent to your device, please enter it: ")
		if err != nil {
			return err
		}
		if err := attempt.SetTwoFactorCode(code); err != nil {
			return err
		}
		if _, err := attempt.Submit(c.Context); err != nil {
			return err
		}
	}

	fmt.Printf("account %s linked\n", account)
	return nil
}

func runList(c *cli.Context) error {
	e, closeEnv, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer closeEnv()

	accounts := e.registry.List()
	if len(accounts) == 0 {
		fmt.Println("no accounts linked")
		return nil
	}

	for _, account := range accounts {
		lastSync := "never"
		if account.LastSync != nil {
			lastSync = account.LastSync.Format(time.DateTime)
		}
		fmt.Printf("%s\tphotos %d/%d\tlast sync %s\n",
			account.Email, account.DownloadedPhotos, account.TotalPhotos, lastSync)
	}
	return nil
}

func runDelAccount(c *cli.Context) error {
	e, closeEnv, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer closeEnv()

	account := c.String("account")
	if account == "" {
		return fmt.Errorf("--account is required")
	}

	// Confirmation is the staging step: declining leaves both the
	// registry and the remote account untouched.
	if !c.Bool("yes") {
		answer, err := promptLine(fmt.Sprintf("delete account %s and stop downloading its photos? [y/N]: ", account))
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			fmt.Println("aborted, nothing changed")
			return nil
		}
	}

	if err := e.registry.RemoveByIdentity(c.Context, account); err != nil {
		return err
	}

	fmt.Printf("account %s deleted\n", account)
	return nil
}

func runConfigure(c *cli.Context) error {
	e, closeEnv, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer closeEnv()

	account, password, err := credentials(c)
	if err != nil {
		return err
	}

	manager := configure.NewManager(e.gw, e.db, configure.Defaults{
		FolderFormat: e.cfg.DefaultFolderFormat,
		Concurrency:  e.cfg.DefaultConcurrency,
	}, e.logger)

	cfg, err := manager.Load(c.Context, account)
	if err != nil {
		return err
	}

	cfg.Password = password
	if c.IsSet("folder-format") {
		cfg.FolderFormat = c.String("folder-format")
	}
	if c.IsSet("remove-deleted") {
		cfg.RemoveDeleted = c.Bool("remove-deleted")
	}
	if c.IsSet("concurrency") {
		cfg.Concurrency = c.Int("concurrency")
	}

	if err := manager.Save(c.Context, cfg); err != nil {
		return err
	}

	fmt.Printf("configuration for %s saved\n", account)
	return nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
			NoColor:    false,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
