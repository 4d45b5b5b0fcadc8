// AngelaMos | 2026
// firestore.go

package core

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/carterperez-dev/mahuru-activation/internal/config"
)

func googleClientOptions(cfg config.FirebaseConfig) []option.ClientOption {
	creds := strings.TrimSpace(cfg.CredentialsFile)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func NewFirestore(
	ctx context.Context,
	cfg config.FirebaseConfig,
) (*firestore.Client, error) {
	if host := strings.TrimSpace(cfg.FirestoreEmulator); host != "" {
		_ = os.Setenv("FIRESTORE_EMULATOR_HOST", host) //nolint:errcheck // read by the client below
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, googleClientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	return client, nil
}

func NewStorage(
	ctx context.Context,
	cfg config.FirebaseConfig,
) (*storage.Client, error) {
	if endpoint := strings.TrimRight(strings.TrimSpace(cfg.StorageEmulatorURL), "/"); endpoint != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint) //nolint:errcheck // read by the client below
		client, err := storage.NewClient(ctx, option.WithoutAuthentication())
		if err != nil {
			return nil, fmt.Errorf("create storage emulator client: %w", err)
		}
		return client, nil
	}

	opts := append(
		googleClientOptions(cfg),
		option.WithScopes(storage.ScopeReadWrite),
	)
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return client, nil
}
