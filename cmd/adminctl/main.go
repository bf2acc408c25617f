package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
	"gorm.io/gorm"

	"github.com/noah-isme/suggestbox-go-api/internal/config"
	"github.com/noah-isme/suggestbox-go-api/internal/database"
	"github.com/noah-isme/suggestbox-go-api/internal/models"
	"github.com/noah-isme/suggestbox-go-api/internal/repository"
)

const minPasswordLen = 8

func main() {
	root := &cobra.Command{
		Use:   "adminctl",
		Short: "Manage suggestion box administrator accounts",
		Long:  "adminctl creates administrator accounts and rotates their passwords. There is no self-service signup; accounts only exist through this tool.",
	}

	root.AddCommand(newCreateCmd(), newPasswdCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <username>",
		Short: "Create a new administrator account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if username == "" {
				return errors.New("username must not be empty")
			}

			repo, err := connect()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			if _, err := repo.FindByUsername(ctx, username); err == nil {
				return fmt.Errorf("admin %q already exists", username)
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check existing admin: %w", err)
			}

			hash, err := promptPasswordHash()
			if err != nil {
				return err
			}

			admin := models.Admin{Username: username, PasswordHash: hash}
			if err := repo.Create(ctx, &admin); err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}

			fmt.Printf("Created admin %q (id %d)\n", admin.Username, admin.ID)
			return nil
		},
	}
}

func newPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd <username>",
		Short: "Set a new password for an administrator account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])

			repo, err := connect()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			admin, err := repo.FindByUsername(ctx, username)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("admin %q does not exist", username)
				}
				return fmt.Errorf("failed to look up admin: %w", err)
			}

			hash, err := promptPasswordHash()
			if err != nil {
				return err
			}

			if err := repo.UpdatePassword(ctx, admin.ID, hash); err != nil {
				return fmt.Errorf("failed to update password: %w", err)
			}

			fmt.Printf("Updated password for %q\n", admin.Username)
			return nil
		},
	}
}

func connect() (repository.AdminRepository, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return repository.NewAdminRepository(db), nil
}

func promptPasswordHash() (string, error) {
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if string(password) != string(confirm) {
		return "", errors.New("passwords do not match")
	}
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}
