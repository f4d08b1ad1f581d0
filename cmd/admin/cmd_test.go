package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-crm-api/internal/models"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

type fakeAccounts struct {
	created  *models.CreateUserRequest
	resetFor string
	resetPwd string
	err      error
}

func (f *fakeAccounts) Create(ctx context.Context, req models.CreateUserRequest, actorID string, meta models.LoginRequest) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &req
	return &models.User{ID: "u-1", Email: req.Email, Role: req.Role}, nil
}

func (f *fakeAccounts) ResetPassword(ctx context.Context, email, password string) error {
	f.resetFor, f.resetPwd = email, password
	return f.err
}

func stubPassword(t *testing.T, pwd string) {
	t.Helper()
	original := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = original })
}

func TestCommandLineHelp(t *testing.T) {
	cli := &commandLine{users: &fakeAccounts{}, out: &bytes.Buffer{}}
	stubPassword(t, "")

	for _, args := range [][]string{
		{"admin"},
		{"admin", "lol"},
		{"admin", "migrate"},
		{"admin", "create-user", "-email", "x@university.tj"},
		{"admin", "reset-password"},
		{"admin", "reset-password", "-email", "x@university.tj"},
	} {
		assert.ErrorIs(t, cli.run(context.Background(), args), errHelp, args)
	}
}

func TestCommandLineMigrate(t *testing.T) {
	original := migrateFunc
	t.Cleanup(func() { migrateFunc = original })

	var gotCommand string
	var gotArgs []string
	migrateFunc = func(ctx context.Context, db *sql.DB, command string, args ...string) error {
		gotCommand, gotArgs = command, args
		if command == "lol" {
			return errors.New("no such command")
		}
		return nil
	}

	out := &bytes.Buffer{}
	cli := &commandLine{out: out}
	require.NoError(t, cli.run(context.Background(), []string{"admin", "migrate", "up-to", "2"}))
	assert.Equal(t, "up-to", gotCommand)
	assert.Equal(t, []string{"2"}, gotArgs)
	assert.Contains(t, out.String(), "migrate up-to: done")

	assert.Error(t, cli.run(context.Background(), []string{"admin", "migrate", "lol"}))
}

func TestCommandLineCreateUser(t *testing.T) {
	stubPassword(t, "secret1")
	accounts := &fakeAccounts{}
	out := &bytes.Buffer{}
	cli := &commandLine{users: accounts, out: out}

	err := cli.run(context.Background(), []string{"admin", "create-user", "-email", "vice@university.tj", "-role", "vice_dean", "-first", "Vice"})
	require.NoError(t, err)
	require.NotNil(t, accounts.created)
	assert.Equal(t, models.RoleViceDean, accounts.created.Role)
	assert.Equal(t, "secret1", accounts.created.Password)
	assert.Contains(t, out.String(), "created vice_dean vice@university.tj")

	accounts.err = appErrors.Clone(appErrors.ErrConflict, "email already exists")
	err = cli.run(context.Background(), []string{"admin", "create-user", "-email", "vice@university.tj", "-role", "vice_dean", "-first", "Vice"})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCommandLineResetPassword(t *testing.T) {
	stubPassword(t, "newsecret")
	accounts := &fakeAccounts{}
	cli := &commandLine{users: accounts, out: &bytes.Buffer{}}

	require.NoError(t, cli.run(context.Background(), []string{"admin", "reset-password", "-email", "dean@university.tj"}))
	assert.Equal(t, "dean@university.tj", accounts.resetFor)
	assert.Equal(t, "newsecret", accounts.resetPwd)
}
