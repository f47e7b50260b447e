package cli

import (
	"bufio"
	"fmt"
	"strings"

	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

type accountFlags struct {
	username      string
	email         string
	password      string
	passwordStdin bool
}

func (f *accountFlags) register(cmd *cobra.Command, withUsername bool) {
	if withUsername {
		cmd.Flags().StringVar(&f.username, "username", "", "Display name")
		_ = cmd.MarkFlagRequired("username")
	}
	cmd.Flags().StringVar(&f.email, "email", "", "Account email")
	cmd.Flags().StringVar(&f.password, "password", "", "Account password")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "Read the password from standard input")
	_ = cmd.MarkFlagRequired("email")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

func (f *accountFlags) readPassword(cmd *cobra.Command) (string, error) {
	password := f.password
	if f.passwordStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password from standard input: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return "", fmt.Errorf("a password is required (--password or --password-stdin)")
	}
	return password, nil
}

// signedIn stores the token from resp and reports where it went
func signedIn(cmd *cobra.Command, resp types.AuthResponse) error {
	path, err := saveCredentials(getConfigFromContext(cmd.Context()), resp)
	if err != nil {
		return err
	}
	getLoggerFromContext(cmd.Context()).Debug("Stored bearer token", "file", path)
	fmt.Fprintf(cmd.OutOrStdout(), "%s Signed in as %s.\n", resp.Message, resp.Username)
	return nil
}

func newSignupCmd() *cobra.Command {
	var flags accountFlags
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account on the server and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := flags.readPassword(cmd)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			resp, err := c.Signup(cmd.Context(), flags.username, flags.email, password)
			if err != nil {
				return err
			}
			return signedIn(cmd, resp)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newSigninCmd() *cobra.Command {
	var flags accountFlags
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the token for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := flags.readPassword(cmd)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			resp, err := c.Signin(cmd.Context(), flags.email, password)
			if err != nil {
				return err
			}
			return signedIn(cmd, resp)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newSignoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := removeCredentials(getConfigFromContext(cmd.Context()))
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			}
			return nil
		},
	}
}
