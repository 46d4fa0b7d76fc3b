package main

import (
	"chat-relay/auth"
	"chat-relay/internal"
	"chat-relay/repositories"
	"chat-relay/services"
	"context"
	"fmt"
	"os"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// seed writes the demo accounts into the relay store and prints a bearer
// token for each. The relay must not be running: Badger holds a file lock.
func main() {
	if err := run(); err != nil {
		color.Red.Printf("Seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer db.Close()

	friendships := repositories.NewFriendshipRepository(db, log)
	accounts := repositories.NewAccountRepository(db, log)
	chats := services.NewChatService(repositories.NewChatRepository(db, log), friendships, services.NewChatLocks(), log)
	seeder := internal.NewSeeder(accounts, friendships, chats, log)

	seeded, err := seeder.Seed(context.Background())
	if err != nil {
		return err
	}

	verifier := auth.NewVerifier(config.JwtSecret, config.JwtIssuer, config.AuthTokenDuration)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Account ID", "Authorization"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, account := range seeded {
		token, err := verifier.GenerateToken(account.CredentialsID)
		if err != nil {
			return fmt.Errorf("token for %s: %w", account.DisplayName, err)
		}
		table.Append([]string{account.DisplayName, account.ID, "Bearer " + token})
	}
	table.Render()
	color.Green.Printf("Seeded %d accounts into %s\n", len(seeded), config.BadgerFilepath)
	return nil
}
