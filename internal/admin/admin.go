// Package admin implements the caseadmin command: directory maintenance and
// development token minting.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/internal/middleware"
	"github.com/fastygo/caseboard/repository"
)

const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitInvalidUsage = 2
)

const usage = `usage: caseadmin <command> [flags]

commands:
  user    create or update a directory user
  pool    create a pool
  member  add or remove a pool member (member add|remove -pool N -user N)
  token   mint a bearer token for a user
`

// Deps are the collaborators a command may use.
type Deps struct {
	Directory repository.DirectoryAdmin
	Tokens    *middleware.TokenService
	TokenTTL  time.Duration
	Stdout    io.Writer
	Stderr    io.Writer
}

// Run executes one command and returns the process exit code.
func Run(ctx context.Context, args []string, deps Deps) int {
	if len(args) == 0 {
		fmt.Fprint(deps.Stderr, usage)
		return ExitInvalidUsage
	}

	var err error
	switch args[0] {
	case "user":
		err = runUser(ctx, args[1:], deps)
	case "pool":
		err = runPool(ctx, args[1:], deps)
	case "member":
		err = runMember(ctx, args[1:], deps)
	case "token":
		err = runToken(ctx, args[1:], deps)
	case "help", "-h", "--help":
		fmt.Fprint(deps.Stdout, usage)
		return ExitSuccess
	default:
		fmt.Fprintf(deps.Stderr, "unknown command %q\n\n%s", args[0], usage)
		return ExitInvalidUsage
	}

	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintln(deps.Stderr, err)
	var usageErr *usageError
	if errors.As(err, &usageErr) || errors.Is(err, flag.ErrHelp) {
		return ExitInvalidUsage
	}
	return ExitFailure
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func newFlagSet(name string, deps Deps) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(deps.Stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return &usageError{msg: err.Error()}
	}
	return nil
}

func runUser(ctx context.Context, args []string, deps Deps) error {
	fs := newFlagSet("user", deps)
	id := fs.Int64("id", 0, "existing user id to update (0 creates)")
	email := fs.String("email", "", "email address")
	first := fs.String("first", "", "first name")
	surname := fs.String("surname", "", "surname")
	roleName := fs.String("role", string(domain.RoleStandard), "standard, administrator or super_administrator")
	disabled := fs.Bool("disabled", false, "create the user disabled")
	if err := parse(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return &usageError{msg: "user: -email is required"}
	}
	role, err := domain.ParseRole(*roleName)
	if err != nil {
		return &usageError{msg: "user: " + err.Error()}
	}

	user := &domain.User{
		ID:        *id,
		Email:     strings.TrimSpace(*email),
		FirstName: strings.TrimSpace(*first),
		Surname:   strings.TrimSpace(*surname),
		Role:      role,
		Enabled:   !*disabled,
	}
	if err := deps.Directory.UpsertUser(ctx, user); err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, user.ID)
	return nil
}

func runPool(ctx context.Context, args []string, deps Deps) error {
	fs := newFlagSet("pool", deps)
	name := fs.String("name", "", "pool name")
	description := fs.String("description", "", "optional description")
	disabled := fs.Bool("disabled", false, "create the pool disabled")
	if err := parse(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return &usageError{msg: "pool: -name is required"}
	}

	pool := &domain.Pool{Name: strings.TrimSpace(*name), Enabled: !*disabled}
	if d := strings.TrimSpace(*description); d != "" {
		pool.Description = &d
	}
	id, err := deps.Directory.CreatePool(ctx, pool)
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, id)
	return nil
}

func runMember(ctx context.Context, args []string, deps Deps) error {
	if len(args) == 0 || (args[0] != "add" && args[0] != "remove") {
		return &usageError{msg: "member: expected add or remove"}
	}
	action := args[0]
	fs := newFlagSet("member "+action, deps)
	poolID := fs.Int64("pool", 0, "pool id")
	userID := fs.Int64("user", 0, "user id")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}
	if *poolID <= 0 || *userID <= 0 {
		return &usageError{msg: "member: -pool and -user are required"}
	}

	if action == "add" {
		return deps.Directory.AddMember(ctx, *poolID, *userID)
	}
	return deps.Directory.RemoveMember(ctx, *poolID, *userID)
}

func runToken(ctx context.Context, args []string, deps Deps) error {
	fs := newFlagSet("token", deps)
	userID := fs.Int64("user", 0, "user id")
	ttl := fs.Duration("ttl", deps.TokenTTL, "token lifetime")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *userID <= 0 {
		return &usageError{msg: "token: -user is required"}
	}
	if deps.Tokens == nil {
		return errors.New("token: JWT_SECRET is not configured")
	}

	user, err := deps.Directory.UserByID(ctx, *userID)
	if err != nil {
		return err
	}
	if !user.IsActive() {
		return fmt.Errorf("token: %w", domain.ErrUserDisabled)
	}
	raw, err := deps.Tokens.Issue(user.ID, user.Role, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, raw)
	return nil
}
