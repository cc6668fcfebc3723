package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"teamiq/pkg/teamiq"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		username := strings.TrimSpace(loginUsername)
		if username == "" {
			var err error
			username, err = prompt("Username or email: ")
			if err != nil {
				return err
			}
		}
		password := loginPassword
		if password == "" {
			var err error
			password, err = prompt("Password: ")
			if err != nil {
				return err
			}
		}

		session, _, err := newSession()
		if err != nil {
			return err
		}

		user, err := session.Login(cmd.Context(), username, password)
		if err != nil {
			return loginHint(err)
		}

		fmt.Printf("signed in as %s (%s)\n", user.Username, user.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and discard the stored token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		session, _, err := newSession()
		if err != nil {
			return err
		}
		// Local state clears regardless of the server's answer.
		if err := session.Logout(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "server logout failed (%v); local token discarded\n", err)
			return nil
		}
		fmt.Println("signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity in the stored token, offline",
	RunE: func(_ *cobra.Command, _ []string) error {
		tokenPath := viper.GetString("token_path")
		if tokenPath == "" {
			dir, err := configDir()
			if err != nil {
				return err
			}
			tokenPath = dir + "/token"
		}

		token := teamiq.NewFileTokenStore(tokenPath).Get()
		if token == "" {
			return fmt.Errorf("not signed in; run `teamiqctl login`")
		}

		claims, err := teamiq.DecodeClaims(token)
		if err != nil {
			return fmt.Errorf("stored token is unreadable: %w", err)
		}

		fmt.Printf("subject:  %s\n", claims.Subject)
		fmt.Printf("username: %s\n", claims.Username)
		fmt.Printf("email:    %s\n", claims.Email)
		fmt.Printf("role:     %s\n", claims.Role)
		fmt.Printf("expires:  %s\n", claims.ExpiresAt.Local())
		if !teamiq.ValidToken(token) {
			fmt.Println("warning: token is expired")
		}
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Fetch the authoritative profile from the server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		session, _, err := newSession()
		if err != nil {
			return err
		}

		user, err := session.Me(cmd.Context())
		if err != nil {
			return loginHint(err)
		}

		fmt.Printf("id:        %s\n", user.ID)
		fmt.Printf("username:  %s\n", user.Username)
		fmt.Printf("full name: %s\n", user.FullName)
		fmt.Printf("email:     %s\n", user.Email)
		fmt.Printf("role:      %s\n", user.Role)
		return nil
	},
}

func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// loginHint rewrites connectivity failures into an actionable message.
func loginHint(err error) error {
	if err == nil {
		return nil
	}
	var transportErr *teamiq.TransportError
	if errors.As(err, &transportErr) {
		return fmt.Errorf("cannot reach the server; check your connection: %w", transportErr.Unwrap())
	}
	return err
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username or email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when omitted)")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, meCmd)
}
