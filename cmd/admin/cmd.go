package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/pkg/database"
)

var (
	readPasswordFunc = term.ReadPassword
	migrateFunc      = database.Migrate

	errHelp = errors.New("help provided")
)

type accountService interface {
	Create(ctx context.Context, req models.CreateUserRequest, actorID string, meta models.LoginRequest) (*models.User, error)
	ResetPassword(ctx context.Context, email, password string) error
}

type commandLine struct {
	db    *sql.DB
	users accountService
	out   io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate up|down|status|version|redo|reset [args]  run database migrations")
	fmt.Fprintln(cli.out, "  create-user -email EMAIL -role ROLE -first NAME [-last NAME]  create an account, password is prompted")
	fmt.Fprintln(cli.out, "  reset-password -email EMAIL  set a new password, prompted")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		if err := migrateFunc(ctx, cli.db, args[2], args[3:]...); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "migrate %s: done\n", args[2])
		return nil

	case "create-user":
		cmd := flag.NewFlagSet("create-user", flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		email := cmd.String("email", "", "login email")
		role := cmd.String("role", "", "dean, vice_dean, teacher, student or parent")
		first := cmd.String("first", "", "first name")
		last := cmd.String("last", "", "last name")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *email == "" || *role == "" || *first == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		user, err := cli.users.Create(ctx, models.CreateUserRequest{
			Email:     *email,
			Password:  pwd,
			FirstName: *first,
			LastName:  *last,
			Role:      models.UserRole(*role),
		}, "", models.LoginRequest{UserAgent: "admin-cli"})
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "created %s %s (%s)\n", user.Role, user.Email, user.ID)
		return nil

	case "reset-password":
		cmd := flag.NewFlagSet("reset-password", flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		email := cmd.String("email", "", "login email")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if err := cli.users.ResetPassword(ctx, *email, pwd); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "password updated for %s\n", *email)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password: ")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errHelp
	}
	return string(pwd), nil
}
