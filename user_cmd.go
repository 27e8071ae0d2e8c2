package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quetzal/model"
	"quetzal/services"
	"quetzal/usecase"
)

var (
	userName     string
	userRole     string
	userPassword string
	userTOTP     bool
)

func init() {
	UserAddCommand.Flags().StringVarP(&userName, "username", "u", "", "account name")
	UserAddCommand.Flags().StringVarP(&userRole, "role", "r", string(model.RoleStudent), "staff or student")
	UserAddCommand.Flags().StringVarP(&userPassword, "password", "p", "", "initial password (default: the username, changed on first login)")
	UserAddCommand.Flags().BoolVar(&userTOTP, "totp", false, "enable two-factor login and print the otpauth URL")
	_ = UserAddCommand.MarkFlagRequired("username")

	UserPasswdCommand.Flags().StringVarP(&userName, "username", "u", "", "account name")
	UserPasswdCommand.Flags().StringVarP(&userPassword, "password", "p", "", "new password")
	_ = UserPasswdCommand.MarkFlagRequired("username")
	_ = UserPasswdCommand.MarkFlagRequired("password")

	UserCommand.AddCommand(&UserAddCommand)
	UserCommand.AddCommand(&UserPasswdCommand)
	RootCmd.AddCommand(&UserCommand)
}

var UserCommand = cobra.Command{
	Use:   "user",
	Short: "Manage login accounts",
}

var UserAddCommand = cobra.Command{
	Use:   "add",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, closeStores, err := authService(cmd)
		if err != nil {
			return err
		}
		defer closeStores()

		user, otpURL, err := auth.CreateUser(cmd.Context(), userName, model.Role(userRole), userPassword, userTOTP)
		if err != nil {
			return fmt.Errorf("could not create user: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "created %s user %q\n", user.Role, user.Username)
		if userPassword == "" {
			fmt.Fprintln(out, "initial password is the username; it must be changed on first login")
		}
		if otpURL != "" {
			fmt.Fprintf(out, "otpauth URL: %s\n", otpURL)
		}
		return nil
	},
}

var UserPasswdCommand = cobra.Command{
	Use:   "passwd",
	Short: "Reset an account's password",
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, closeStores, err := authService(cmd)
		if err != nil {
			return err
		}
		defer closeStores()

		if err := auth.SetPassword(cmd.Context(), userName, userPassword); err != nil {
			return fmt.Errorf("could not update password: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password updated for %q\n", userName)
		return nil
	},
}

// authService builds an AuthService for offline account management; tokens
// are never issued here, so no blacklist is needed beyond memory.
func authService(cmd *cobra.Command) (*usecase.AuthService, func(), error) {
	st, err := openStores(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	tokens := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	auth := usecase.NewAuthService(st.users, tokens, services.NewMemoryTokenBlacklist(),
		cfg.Auth.StaffEmail, cfg.Auth.StudentEmail, cfg.Auth.Issuer)
	return auth, st.Close, nil
}
