package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
)

// LoginCommand authenticates against the API and stores the token pair in
// the encrypted local token store.
type LoginCommand struct {
	Username     string
	Password     string
	BaseURL      string
	DatabasePath string
}

func NewLoginCommand() *LoginCommand {
	return &LoginCommand{}
}

func (cmd *LoginCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Account username (required)")
	fs.StringVar(&cmd.Password, "password", "", "Account password (prompted if omitted)")
	fs.StringVar(&cmd.BaseURL, "url", "", "API base URL (overrides API_BASE_URL)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the local state database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s login -username <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Obtain a JWT token pair and store it locally. Subsequent commands attach\n")
		fmt.Fprintf(os.Stderr, "the access token automatically.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}

	return nil
}

func (cmd *LoginCommand) Run() error {
	if cmd.Password == "" {
		fmt.Print("Password: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		cmd.Password = strings.TrimRight(line, "\r\n")
	}

	app, err := buildApp(cmd.BaseURL, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Auth.Login(context.Background(), cmd.Username, cmd.Password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("Logged in as %s\n", cmd.Username)
	return nil
}
