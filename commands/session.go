package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"estate_hub/auth"
	"estate_hub/models"
	"estate_hub/session"
	"estate_hub/storage"
	"estate_hub/viewmodel"
)

// openSession opens the local preferences store and a Manager that checks
// stored tokens against the configured secret.
func openSession(validate session.Validator) (*session.Manager, func(), error) {
	store, err := storage.NewSQLiteStore(cfg.SessionDBPath)
	if err != nil {
		return nil, nil, err
	}
	return session.NewManager(store, validate, logger), func() { _ = store.Close() }, nil
}

func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Print("Password: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return err
				}
				password = strings.TrimSpace(line)
			}

			b, err := openBackend(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer b.Close()

			sessions, closeStore, err := openSession(tokenValidator(b.tokens))
			if err != nil {
				return err
			}
			defer closeStore()

			vm := viewmodel.NewUserViewModel(b.users, sessions, logger)
			user, err := vm.Login(cmd.Context(), email, password)
			if err != nil {
				return errors.New(models.Message(err))
			}
			fmt.Printf("Signed in as %s (%s)\n", user.Email, user.PrimaryRole())
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, closeStore, err := openSession(nil)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := sessions.End(); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session and the screen it leads to",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireSecret(); err != nil {
				return err
			}
			tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Expiry)
			sessions, closeStore, err := openSession(tokenValidator(tokens))
			if err != nil {
				return err
			}
			defer closeStore()

			route := sessions.InitialRoute()
			if s, ok := sessions.Current(); ok {
				fmt.Printf("Signed in (%s), start at %s\n", s.Role, route)
				return nil
			}
			fmt.Printf("Not signed in, start at %s\n", route)
			return nil
		},
	}
}

func tokenValidator(tokens *auth.Tokens) session.Validator {
	return func(token string) error {
		_, err := tokens.Validate(token)
		return err
	}
}
