package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sethvargo/go-password/password"
	"github.com/spf13/cobra"

	"streamfront/services/clients"
	"streamfront/services/identity"
)

const generatedPasswordLength = 16

func newAccountCommand(ctx *commandContext) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account utilities",
	}
	accountCmd.AddCommand(newAccountCreateCommand(ctx))
	accountCmd.AddCommand(newAccountListCommand(ctx))
	accountCmd.AddCommand(newAccountPasswdCommand(ctx))
	accountCmd.AddCommand(newAccountDeleteCommand(ctx))
	return accountCmd
}

func newAccountCreateCommand(ctx *commandContext) *cobra.Command {
	var secretFlag string
	var generate bool
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an account and log in as it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := chooseSecret(cmd, secretFlag, generate)
			if err != nil {
				return err
			}
			return ctx.withStack(cmd, func(s *stack) error {
				inst := s.registry.New(cliUserAgent, cliAddress)
				defer inst.Close()
				user, err := inst.Auth.SignUp(cmd.Context(), args[0], secret)
				if err != nil {
					return fmt.Errorf("create account: %w", err)
				}
				if err := writeToken(s.cfg.Paths.TokenFile, user.Token); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created account %s and logged in\n", user.Username)
				if generate {
					fmt.Fprintf(cmd.OutOrStdout(), "Generated password: %s\n", secret)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&secretFlag, "password", "p", "", "Password (read from stdin when omitted)")
	cmd.Flags().BoolVar(&generate, "generate", false, "Generate a random password and print it")
	cmd.MarkFlagsMutuallyExclusive("password", "generate")
	return cmd
}

func newAccountListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStack(cmd, func(s *stack) error {
				accounts := s.accounts.List()
				if len(accounts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No accounts")
					return nil
				}
				rows := make([][]string, 0, len(accounts))
				for _, a := range accounts {
					rows = append(rows, []string{a.Username, a.ID, a.CreatedAt.Local().Format("2006-01-02 15:04")})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Username", "ID", "Created"}, rows, nil))
				return nil
			})
		},
	}
}

func newAccountPasswdCommand(ctx *commandContext) *cobra.Command {
	var secretFlag string
	var generate bool
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the logged-in account's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStack(cmd, func(s *stack) error {
				inst, _, err := s.resume(cmd.Context())
				if err != nil {
					return err
				}
				user, _ := inst.Auth.CurrentUser()

				secret, err := chooseSecret(cmd, secretFlag, generate)
				if err != nil {
					return err
				}
				if err := s.identity.ChangePassword(user.UID, secret); err != nil {
					return fmt.Errorf("change password: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password changed for %s\n", user.Username)
				if generate {
					fmt.Fprintf(cmd.OutOrStdout(), "Generated password: %s\n", secret)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&secretFlag, "password", "p", "", "New password (read from stdin when omitted)")
	cmd.Flags().BoolVar(&generate, "generate", false, "Generate a random password and print it")
	cmd.MarkFlagsMutuallyExclusive("password", "generate")
	return cmd
}

func newAccountDeleteCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the logged-in account, its sessions and its favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStack(cmd, func(s *stack) error {
				inst, token, err := s.resume(cmd.Context())
				if err != nil {
					return err
				}
				user, _ := inst.Auth.CurrentUser()
				if !confirmed {
					return fmt.Errorf("refusing to delete account %s without --yes", user.Username)
				}

				if err := s.registry.Release(cmd.Context(), token); err != nil && !errors.Is(err, clients.ErrUnknownToken) {
					return fmt.Errorf("log out: %w", err)
				}
				revoked, err := s.identity.DeleteAccount(user.UID)
				if err != nil {
					return fmt.Errorf("delete account: %w", err)
				}
				if err := s.docs.Delete(cmd.Context(), user.UID); err != nil {
					return fmt.Errorf("delete favorites: %w", err)
				}
				if err := removeToken(s.cfg.Paths.TokenFile); err != nil {
					return fmt.Errorf("remove token file: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %s (%d other sessions revoked)\n", user.Username, revoked)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm deletion")
	return cmd
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var secretFlag string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := resolvePassword(cmd, secretFlag)
			if err != nil {
				return err
			}
			return ctx.withStack(cmd, func(s *stack) error {
				inst := s.registry.New(cliUserAgent, cliAddress)
				defer inst.Close()
				user, err := inst.Auth.SignIn(cmd.Context(), args[0], secret)
				if err != nil {
					if errors.Is(err, identity.ErrInvalidCredentials) {
						return errors.New("invalid username or password")
					}
					return fmt.Errorf("log in: %w", err)
				}
				if err := writeToken(s.cfg.Paths.TokenFile, user.Token); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Username)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&secretFlag, "password", "p", "", "Password (read from stdin when omitted)")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the remembered session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStack(cmd, func(s *stack) error {
				token, err := readToken(s.cfg.Paths.TokenFile)
				if err != nil {
					return err
				}
				if token == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
					return nil
				}
				if _, err := s.registry.Resolve(cmd.Context(), token, cliUserAgent, cliAddress); err == nil {
					if err := s.registry.Release(cmd.Context(), token); err != nil && !errors.Is(err, clients.ErrUnknownToken) {
						return fmt.Errorf("log out: %w", err)
					}
				}
				if err := removeToken(s.cfg.Paths.TokenFile); err != nil {
					return fmt.Errorf("remove token file: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

// chooseSecret generates a password when asked and otherwise resolves one
// from the flag or stdin.
func chooseSecret(cmd *cobra.Command, flagValue string, generate bool) (string, error) {
	if !generate {
		return resolvePassword(cmd, flagValue)
	}
	secret, err := password.Generate(generatedPasswordLength, 4, 0, false, true)
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return secret, nil
}

// resolvePassword prefers the flag and otherwise reads one line from stdin.
func resolvePassword(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	value := strings.TrimRight(line, "\r\n")
	if value == "" {
		return "", errors.New("password required")
	}
	return value, nil
}
