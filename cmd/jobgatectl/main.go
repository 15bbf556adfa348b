// Command jobgatectl runs one-off maintenance tasks against the database.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"jobgate-appointment-api/internal/auth"
	"jobgate-appointment-api/internal/config"
	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/notify"
	"jobgate-appointment-api/internal/reminder"
	"jobgate-appointment-api/internal/store"
)

const usage = `usage: jobgatectl <command> [flags]

commands:
  create-admin   -email <addr> [-first <name>] [-last <name>]
  migrate
  seed-themes
  send-reminders`

var defaultThemes = []model.AppointmentTheme{
	{Name: "Career Guidance", Description: "Orientation and career planning", ColorCode: "#1976d2", Icon: "explore"},
	{Name: "CV Review", Description: "Feedback on CVs and cover letters", ColorCode: "#388e3c", Icon: "description"},
	{Name: "Interview Preparation", Description: "Mock interviews and coaching", ColorCode: "#f57c00", Icon: "record_voice_over"},
	{Name: "Internship Search", Description: "Finding and applying for internships", ColorCode: "#7b1fa2", Icon: "work"},
	{Name: "Entrepreneurship", Description: "Support for student projects and startups", ColorCode: "#c2185b", Icon: "lightbulb"},
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.App.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	pool, err := store.Connect(ctx, cfg.Database.URL, 2)
	if err != nil {
		fail(err)
	}
	defer pool.Close()
	st := store.New(pool)

	switch os.Args[1] {
	case "create-admin":
		err = createAdmin(ctx, st, os.Args[2:])
	case "migrate":
		err = st.Migrate(ctx, cfg.Database.MigrationsPath)
	case "seed-themes":
		err = seedThemes(ctx, st)
	case "send-reminders":
		err = sendReminders(ctx, st, cfg)
	default:
		err = fmt.Errorf("unknown command: %s\n%s", os.Args[1], usage)
	}
	if err != nil {
		pool.Close()
		fail(err)
	}
}

func fail(err error) {
	appLog.Error("jobgatectl", err)
	os.Exit(1)
}

func createAdmin(ctx context.Context, st *store.Store, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	email := fs.String("email", "", "admin email")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr := strings.ToLower(strings.TrimSpace(*email))
	if !strings.Contains(addr, "@") {
		return errors.New("-email is required")
	}

	pw, err := readPassword()
	if err != nil {
		return err
	}
	if len(pw) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	hash, err := auth.HashPassword(pw)
	if err != nil {
		return err
	}

	username, _, _ := strings.Cut(addr, "@")
	u := &model.User{
		ID:           uuid.New().String(),
		Email:        addr,
		PasswordHash: hash,
		Username:     username,
		FirstName:    *first,
		LastName:     *last,
		UserType:     model.UserAdmin,
	}
	if err := st.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("a user with email %s or username %s already exists", addr, username)
		}
		return err
	}
	appLog.Info("admin created", "id", u.ID, "email", addr)
	return nil
}

// readPassword prompts twice on a terminal and reads one line otherwise, so
// the command also works in scripts.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Repeat password: ")
	again, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(pw) != string(again) {
		return "", errors.New("passwords do not match")
	}
	return string(pw), nil
}

func seedThemes(ctx context.Context, st *store.Store) error {
	for i := range defaultThemes {
		created, err := st.EnsureTheme(ctx, &defaultThemes[i])
		if err != nil {
			return err
		}
		if created {
			appLog.Info("theme created", "name", defaultThemes[i].Name)
		}
	}
	return nil
}

// sendReminders runs one reminder sweep and waits for the emails to go out.
func sendReminders(ctx context.Context, st *store.Store, cfg *config.Config) error {
	disp := notify.NewDispatcher(st, notify.NewMailer(cfg.Mail), cfg.Mail.Workers, cfg.Mail.Queue)
	disp.Start(ctx)

	n, err := reminder.New(st, disp, nil, cfg.Location(), cfg.Jobs).SweepReminders(ctx)
	if shutErr := disp.Shutdown(ctx); shutErr != nil && err == nil {
		err = shutErr
	}
	if err != nil {
		return err
	}
	appLog.Info("reminders queued", "count", n)
	return nil
}
