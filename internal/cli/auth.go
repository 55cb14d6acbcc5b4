package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/idilsaglam/tada-remote/internal/auth"
	"github.com/idilsaglam/tada-remote/internal/ui"
)

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the anti-forgery token and session cookie",
		Args:  noArgs("auth"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return usagef("usage: tada auth login|logout|status")
		},
	}
	cmd.AddCommand(newLoginCmd(a), newLogoutCmd(a), newStatusCmd(a))
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var token, session string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a CSRF token (and optionally a session id)",
		Long: `Store the value of the backend's csrftoken cookie, and optionally its
sessionid cookie, so every request carries them. Without --token the
token is read from the terminal with echo off, or from stdin when piped.`,
		Args: noArgs("auth login"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				var err error
				if token, err = a.readToken(); err != nil {
					return err
				}
			}
			var expires *time.Time
			if ttl > 0 {
				e := time.Now().Add(ttl)
				expires = &e
			}
			if err := a.creds.Set(token, session, expires); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			ui.OK("token saved to " + a.cfg.Dir)
			if os.Getenv(auth.EnvToken) != "" {
				ui.Hint(auth.EnvToken + " is set and takes precedence over the saved token")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token value (csrftoken=... is accepted)")
	cmd.Flags().StringVar(&session, "session", "", "session id (sessionid=... is accepted)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "forget the token after this long (0 keeps it)")
	return cmd
}

// readToken prompts on a terminal and otherwise reads the first line of
// stdin.
func (a *app) readToken() (string, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(ui.Stderr, "CSRF token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(ui.Stderr)
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", usagef("auth login: no token given (use --token or pipe it on stdin)")
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", usagef("auth login: empty token")
	}
	return line, nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  noArgs("auth logout"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.creds.Delete(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			ui.OK("logged out")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from",
		Args:  noArgs("auth status"),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.creds.Get()
			if err != nil {
				return err
			}
			if c == nil {
				return errors.New("not logged in (the token will come from the server's cookie)")
			}
			lines := []string{
				"source:  " + c.Source,
				"token:   " + mask(c.CSRFToken),
			}
			if c.SessionID != "" {
				lines = append(lines, "session: "+mask(c.SessionID))
			}
			if !c.CreatedAt.IsZero() {
				lines = append(lines, "saved:   "+c.CreatedAt.Format(time.RFC3339))
			}
			if c.ExpiresAt != nil {
				state := "valid until "
				if c.Expired(time.Now()) {
					state = "expired at "
				}
				lines = append(lines, "expires: "+state+c.ExpiresAt.Format(time.RFC3339))
			}
			ui.Panel(lines)
			return nil
		},
	}
}

// mask keeps the first and last four characters.
func mask(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
