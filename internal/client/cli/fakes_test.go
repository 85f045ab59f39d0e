package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/vidtube/internal/client/models"
)

// fakeAuth is an in-memory services.AuthService.
type fakeAuth struct {
	username string

	registered   models.RegisterRequest
	loginID      string
	loginPass    string
	oldPassword  string
	newPassword  string
	channelAsked string

	user     *models.User
	profile  *models.ChannelProfile
	history  []models.VideoSummary
	err      error
	pingErr  error
	closed   bool
	refreshN int
}

func (f *fakeAuth) Register(ctx context.Context, r models.RegisterRequest) (*models.User, error) {
	f.registered = r
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{Username: r.Username}, nil
}

func (f *fakeAuth) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	f.loginID, f.loginPass = identifier, password
	if f.err != nil {
		return nil, f.err
	}
	f.username = "ada"
	return &models.User{Username: "ada"}, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.username = ""
	return f.err
}

func (f *fakeAuth) Refresh(ctx context.Context) error {
	f.refreshN++
	if f.err != nil {
		f.username = ""
	}
	return f.err
}

func (f *fakeAuth) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	f.oldPassword, f.newPassword = oldPassword, newPassword
	return f.err
}

func (f *fakeAuth) CurrentUser(ctx context.Context) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeAuth) ChannelProfile(ctx context.Context, username string) (*models.ChannelProfile, error) {
	f.channelAsked = username
	return f.profile, f.err
}

func (f *fakeAuth) WatchHistory(ctx context.Context) ([]models.VideoSummary, error) {
	return f.history, f.err
}

func (f *fakeAuth) Username(ctx context.Context) (string, error) { return f.username, nil }
func (f *fakeAuth) Ping(ctx context.Context) error               { return f.pingErr }
func (f *fakeAuth) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func newTestApp(auth *fakeAuth, input string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &App{
		authService: auth,
		reader:      bufio.NewReader(strings.NewReader(input)),
		out:         out,
	}, out
}

// captureOutput swaps printlnFn for the duration of the test.
func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	old := printlnFn
	printlnFn = func(a ...any) (int, error) {
		s := strings.TrimSuffix(fmt.Sprintln(a...), "\n")
		lines = append(lines, s)
		return len(s), nil
	}
	t.Cleanup(func() { printlnFn = old })
	return &lines
}

// stubPasswords makes getPassword return the given values in order.
func stubPasswords(t *testing.T, values ...string) {
	t.Helper()
	old := getPassword
	i := 0
	getPassword = func(prompt string, w io.Writer) (string, error) {
		if i >= len(values) {
			return "", fmt.Errorf("unexpected password prompt %q", prompt)
		}
		v := values[i]
		i++
		return v, nil
	}
	t.Cleanup(func() { getPassword = old })
}
