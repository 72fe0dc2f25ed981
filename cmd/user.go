package cmd

import (
	"errors"
	"fmt"
	"strings"

	"carenest/config/database"
	"carenest/internal/auth/model"
	"carenest/internal/auth/repository"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errDatabaseRequired = errors.New("DATABASE_URL must be set to manage users")

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for a users file entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := repository.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newUserCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts in the Postgres user table",
	}
	cmd.AddCommand(newUserAddCmd(v), newUserRemoveCmd(v))
	return cmd
}

func newUserAddCmd(v *viper.Viper) *cobra.Command {
	var password, role string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create or update an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if !model.ValidUsername(username) {
				return fmt.Errorf("%w: %q", model.ErrInvalidUsername, username)
			}
			if !model.ValidRole(role) {
				return fmt.Errorf("%w: %q", model.ErrUnknownRole, role)
			}
			hash, err := repository.HashPassword(password)
			if err != nil {
				return err
			}

			users, closeDB, err := openUserTable(cmd, v)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := users.Upsert(cmd.Context(), username, hash, role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", username, role)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&role, "role", model.RolePatient, "patient, caretaker or admin")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserRemoveCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <username>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, closeDB, err := openUserTable(cmd, v)
			if err != nil {
				return err
			}
			defer closeDB()

			n, err := users.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("no account named %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func openUserTable(cmd *cobra.Command, v *viper.Viper) (*repository.PostgresUserRepository, func(), error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, errDatabaseRequired
	}
	db, err := database.Connect(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repository.NewPostgresUserRepository(db), func() { db.Close() }, nil
}
