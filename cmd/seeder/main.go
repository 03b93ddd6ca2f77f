// Seeds demo accounts with API keys for local development and
// benchmarking. The raw API keys are printed once; only hashes are
// stored.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"

	"github.com/dodopayments/payments-engine/internal/config"
	"github.com/dodopayments/payments-engine/internal/domain"
	"github.com/dodopayments/payments-engine/internal/service"
	"github.com/dodopayments/payments-engine/internal/store"
)

func main() {
	accounts := flag.Int("accounts", 10, "number of accounts to create")
	balance := flag.String("balance", "1000.00", "initial balance per account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	pool, err := store.NewPool(ctx, store.PoolConfig{
		URL:            cfg.Database.URL,
		MaxConns:       cfg.Database.MaxConnections,
		MinConns:       cfg.Database.MinConnections,
		AcquireTimeout: cfg.Database.AcquireTimeout,
	})
	if err != nil {
		log.Fatalf("unable to connect to database: %v", err)
	}
	defer pool.Close()

	accountStore := store.NewPostgresAccounts(pool)
	apiKeyStore := store.NewPostgresAPIKeys(pool)

	initial, err := domain.MoneyFromString(*balance)
	if err != nil {
		log.Fatalf("invalid balance: %v", err)
	}

	log.Printf("seeding %d accounts with balance %s", *accounts, initial)

	for i := 0; i < *accounts; i++ {
		account, err := domain.NewAccount(fmt.Sprintf("Demo Business %03d", i+1), initial)
		if err != nil {
			log.Fatalf("building account: %v", err)
		}
		created, err := accountStore.Create(ctx, account)
		if err != nil {
			log.Fatalf("creating account: %v", err)
		}

		rawKey, err := generateRawKey()
		if err != nil {
			log.Fatalf("generating api key: %v", err)
		}
		if _, err := apiKeyStore.Create(ctx, domain.NewAPIKey(created.ID, service.HashAPIKey(rawKey))); err != nil {
			log.Fatalf("storing api key: %v", err)
		}

		fmt.Printf("account=%s api_key=%s\n", created.ID, rawKey)
	}

	log.Printf("done")
}

func generateRawKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "dodo_" + hex.EncodeToString(buf), nil
}
