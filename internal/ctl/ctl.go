// Package ctl implements eventhubctl, the out-of-band maintenance tool.
// It talks to storage directly and is never reachable over HTTP.
package ctl

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/eventhub/internal/flagx"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
)

// ErrUsage is returned when the command line does not name a command.
var ErrUsage = errors.New("usage: eventhubctl [config flags] promote|demote <email>")

// roleSetter is the slice of the user service the tool needs.
type roleSetter interface {
	SetRole(ctx context.Context, email string, role models.Role) (*models.User, bool, error)
}

var commands = map[string]models.Role{
	"promote": models.RoleAdmin,
	"demote":  models.RoleUser,
}

// parseCommand reads "<command> <email>" from the positional arguments.
// Config flags may appear anywhere and are skipped.
func parseCommand(args []string) (cmd, email string, err error) {
	pos := flagx.Positional(args)
	if len(pos) == 0 {
		return "", "", ErrUsage
	}
	if _, ok := commands[pos[0]]; !ok {
		return "", "", fmt.Errorf("unknown command %q: %w", pos[0], ErrUsage)
	}
	if len(pos) != 2 {
		return "", "", fmt.Errorf("%s: expected exactly one email: %w", pos[0], ErrUsage)
	}
	return pos[0], pos[1], nil
}

// Run executes one command and reports the outcome on out.
func Run(ctx context.Context, users roleSetter, args []string, out io.Writer) error {
	cmd, email, err := parseCommand(args)
	if err != nil {
		return err
	}
	role := commands[cmd]

	user, changed, err := users.SetRole(ctx, email, role)
	if err != nil {
		return fmt.Errorf("%s %s: %w", cmd, email, err)
	}

	if !changed {
		fmt.Fprintf(out, "%s is already %s\n", user.Email, role)
		return nil
	}
	fmt.Fprintf(out, "%s is now %s\n", user.Email, role)
	return nil
}
