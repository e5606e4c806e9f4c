// Command seed creates the initial superuser account.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"pmtctportal/internal/config"
	"pmtctportal/internal/model"
	"pmtctportal/internal/repository"
)

func main() {
	username := flag.String("username", "admin", "superuser account name")
	password := flag.String("password", "", "superuser password (required)")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "seed: -password is required")
		os.Exit(2)
	}
	if len(*password) < 8 {
		fmt.Fprintln(os.Stderr, "seed: password must be at least 8 characters")
		os.Exit(2)
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed: mongodb connect failed:", err)
		os.Exit(1)
	}
	defer client.Disconnect(ctx)

	users := repository.NewUserRepo(client.Database(cfg.MongoDB))

	existing, err := users.GetByUsername(ctx, *username)
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed: lookup failed:", err)
		os.Exit(1)
	}
	if existing != nil {
		fmt.Printf("seed: user %q already exists, nothing to do\n", *username)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed: hash failed:", err)
		os.Exit(1)
	}

	id, err := users.Create(ctx, &model.User{
		Username:     *username,
		PasswordHash: string(hash),
		Role:         model.RoleSuperuser,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed: create failed:", err)
		os.Exit(1)
	}

	fmt.Printf("seed: created superuser %q (%s)\n", *username, id)
}
