// migrate applies or rolls back the embedded schema migrations.
//
//	migrate [--config file] up
//	migrate [--config file] down [N]
//	migrate [--config file] version
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"studentrecords/internal/config"
	"studentrecords/internal/database"
	"studentrecords/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flags := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "path to a YAML config file (default $APP_CONFIG)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	args := flags.Args()
	if len(args) == 0 {
		return errors.New("usage: migrate [--config file] up|down [N]|version")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	mg, err := database.NewMigrator(cfg.Database, log)
	if err != nil {
		return err
	}
	defer mg.Close()

	switch args[0] {
	case "up":
		return mg.Up()
	case "down":
		steps := 1
		if len(args) > 1 {
			if steps, err = strconv.Atoi(args[1]); err != nil || steps < 1 {
				return fmt.Errorf("down: bad step count %q", args[1])
			}
		}
		return mg.Down(steps)
	case "version":
		v, dirty, err := mg.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d dirty=%t\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
