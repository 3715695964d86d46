package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mmcdole/holocron/internal/config"
	"github.com/mmcdole/holocron/internal/domain"
	"github.com/mmcdole/holocron/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// prompter reads answers from a terminal or a pipe
type prompter struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{in: cmd.InOrStdin(), out: cmd.OutOrStdout()}
}

func (p *prompter) line(prompt string) (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.in)
	}
	fmt.Fprint(p.out, prompt)
	s, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// secret reads without echo when attached to a terminal
func (p *prompter) secret(prompt string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.line(prompt)
	}

	fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out) // Add newline after hidden input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// LoginCommand signs in and persists the session
func LoginCommand(c *cli) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			if username == "" {
				u, err := p.line("Username: ")
				if err != nil {
					return err
				}
				username = u
			}
			password, err := p.secret("Password: ")
			if err != nil {
				return err
			}

			sess, err := c.app.Login(username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Signed in as %s\n", sess.DisplayName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	return cmd
}

// LogoutCommand ends the persisted session
func LogoutCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := c.app.Logout()
			if errors.Is(err, domain.ErrNotAuthenticated) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Signed out")
			return nil
		},
	}
}

// WhoamiCommand prints the current session
func WhoamiCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.app.Session.Current()
			if err != nil {
				return err
			}
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), sess)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\nsigned in %s\n",
				sess.DisplayName, sess.Username, sess.SignedInAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

// PasswdCommand sets a new password and saves its hash to the config file
func PasswdCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			first, err := p.secret("New password: ")
			if err != nil {
				return err
			}
			if first == "" {
				return fmt.Errorf("password must not be empty")
			}
			second, err := p.secret("Repeat password: ")
			if err != nil {
				return err
			}
			if first != second {
				return fmt.Errorf("passwords do not match")
			}

			hash, err := session.HashPassword(first, bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			c.cfg.Auth.PasswordHash = hash
			if err := config.SaveConfig(c.cfg, c.configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Password updated")
			return nil
		},
	}
}
