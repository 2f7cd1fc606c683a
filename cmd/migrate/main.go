package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/careercoach/careercoach/backend/go-services/internal/config"
	"github.com/careercoach/careercoach/backend/go-services/internal/database"
	"github.com/careercoach/careercoach/backend/go-services/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
)

const usage = "usage: migrate [up | down | steps N | version | force V]"

// migrate applies the embedded user schema migrations against DATABASE_URL.
func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	cmd, args := "up", []string(nil)
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}

	m, err := database.NewMigrator(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer m.Close()

	if err := run(m, cmd, args); err != nil {
		logger.Fatalf("migrate %s: %v", cmd, err)
	}

	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Infof("schema is empty")
	case err != nil:
		logger.Fatalf("read version: %v", err)
	default:
		logger.Infof("schema version %d (dirty=%v)", v, dirty)
	}
}

func run(m *migrate.Migrate, cmd string, args []string) error {
	var err error
	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		n, perr := intArg(args)
		if perr != nil {
			return perr
		}
		err = m.Steps(n)
	case "force":
		v, perr := intArg(args)
		if perr != nil {
			return perr
		}
		err = m.Force(v)
	case "version":
		return nil
	default:
		return errors.New(usage)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Infof("no change")
		return nil
	}
	return err
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errors.New(usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[0])
	}
	return n, nil
}
