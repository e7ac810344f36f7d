// adduser creates an account directly in the database. Registration over
// HTTP only ever creates ordinary users, so this is how administrators are
// provisioned.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"studentrecords/internal/config"
	"studentrecords/internal/database"
	"studentrecords/internal/entity"
	"studentrecords/internal/logging"
	"studentrecords/internal/repository"
	"studentrecords/internal/service"
	"studentrecords/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "adduser: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, roleName string
	var in service.RegisterInput

	flags := pflag.NewFlagSet("adduser", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "path to a YAML config file (default $APP_CONFIG)")
	flags.StringVarP(&in.Username, "username", "u", "", "login name")
	flags.StringVarP(&in.Email, "email", "e", "", "email address")
	flags.StringVarP(&in.Password, "password", "p", "", "password (default $ADDUSER_PASSWORD)")
	flags.StringVar(&in.FullName, "full-name", "", "display name")
	flags.StringVar(&roleName, "role", string(entity.RoleAdmin), "admin or user")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if in.Password == "" {
		in.Password = os.Getenv("ADDUSER_PASSWORD")
	}

	role, err := entity.ParseRole(roleName)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database, log); err != nil {
			return err
		}
	}
	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer database.Close(db, log)

	hasher, err := service.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	// No sessions are opened here; the manager only satisfies the service.
	auth := service.NewAuthService(repository.NewUserRepository(db), session.NewManager(cfg.Session.IdleTimeout), hasher, log)

	u, err := auth.CreateUser(ctx, in, role)
	if err != nil {
		return err
	}
	fmt.Printf("created %s %q (id %d, %s)\n", u.Role, u.Username, u.ID, u.Email)
	return nil
}
