// Command adduser creates a user account directly in the database.
// Intended for bootstrapping the first accounts before the API has any
// users to authenticate.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"outlay/internal/auth"
	"outlay/internal/config"
	"outlay/internal/core"
	"outlay/internal/storage"
)

func main() {
	_ = godotenv.Load()

	var (
		username = flag.String("user", "", "username for the new account")
		password = flag.String("password", "", "password (omit to be prompted)")
		role     = flag.String("role", core.RoleUser, "account role: admin or user")
		dbPath   = flag.String("db", "", "SQLite database path (defaults to SQLITE_DB_PATH)")
	)
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "usage: adduser -user <name> [-password <pw>] [-role admin|user] [-db <path>]")
		os.Exit(2)
	}
	if *role != core.RoleAdmin && *role != core.RoleUser {
		fmt.Fprintf(os.Stderr, "invalid role %q: must be admin or user\n", *role)
		os.Exit(2)
	}

	pw := *password
	if pw == "" {
		var err error
		pw, err = promptPassword()
		if err != nil {
			fmt.Fprintf(os.Stderr, "read password: %v\n", err)
			os.Exit(1)
		}
	}
	if len(pw) < 8 {
		fmt.Fprintln(os.Stderr, "password must be at least 8 characters")
		os.Exit(1)
	}

	path := *dbPath
	if path == "" {
		path = config.Load().SQLiteDBPath
	}

	repo, err := storage.New(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	hash, err := auth.HashPassword(pw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}

	user, err := repo.CreateUser(context.Background(), strings.TrimSpace(*username), hash, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("created user %q (id %d, role %s)\n", user.Username, user.ID, user.Role)
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	fmt.Print("Repeat password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
