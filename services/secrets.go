package services

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"lumen/logger"
)

// SecretAccessor reads the payload of a secret version resource name,
// e.g. projects/p/secrets/openai/versions/latest.
type SecretAccessor func(ctx context.Context, name string) (string, error)

// AccessSecret reads a secret version from GCP Secret Manager using the
// ambient application default credentials.
func AccessSecret(ctx context.Context, name string) (string, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("could not create secret manager client: %w", err)
	}
	defer client.Close()

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("could not access secret %s: %w", name, err)
	}
	return string(result.Payload.Data), nil
}

// ResolveAPIKey looks for the OpenAI key in OPENAI_API_KEY, then OPENAI_KEY,
// then in the secret named by LUMEN_OPENAI_SECRET. An empty key with a nil
// error means nothing is configured.
func ResolveAPIKey(ctx context.Context, getenv func(string) string, access SecretAccessor) (string, error) {
	if key := getenv("OPENAI_API_KEY"); key != "" {
		return key, nil
	}
	if key := getenv("OPENAI_KEY"); key != "" {
		return key, nil
	}

	secret := getenv("LUMEN_OPENAI_SECRET")
	if secret == "" {
		return "", nil
	}
	if access == nil {
		access = AccessSecret
	}

	logger.Debug.Printf("fetching api key from secret %s", secret)
	return access(ctx, secret)
}
