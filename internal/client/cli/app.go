package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/eventplanner/internal/client/client"
	"github.com/dmitrijs2005/eventplanner/internal/client/config"
)

type App struct {
	config  *config.Config
	api     client.Client
	session *client.Session
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	api, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	return &App{
		config:  c,
		api:     api,
		session: &client.Session{},
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.session.Active()
}

func (a *App) status() string {
	if a.isLoggedIn() && a.session.User != nil {
		return a.session.User.Email
	}
	return "guest"
}

// Run greets the user, reports server reachability and blocks in the REPL
// until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to eventplanner CLI (type 'help' for commands)")

	if err := a.api.Health(ctx); err != nil {
		fmt.Fprintf(a.out, "Warning: %s is not reachable: %v\n", a.config.ServerURL, err)
	}

	runREPL(ctx, a, a.status, a.reader)
}
