package config

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
)

// computeScope is the OAuth scope needed for all Compute Engine calls.
const computeScope = "https://www.googleapis.com/auth/compute"

// ResolveCredentials loads the service account key named by
// GOOGLE_APPLICATION_CREDENTIALS and confirms its embedded project ID
// matches the configured one. Creating an instance in the wrong project is
// an expensive mistake, so a mismatch is fatal, not a warning.
func ResolveCredentials(ctx context.Context, projectID string) (*google.Credentials, error) {
	keyPath, ok := os.LookupEnv(CredentialsEnv)
	if !ok || keyPath == "" {
		return nil, fmt.Errorf("%s environment variable is not set", CredentialsEnv)
	}

	data, err := os.ReadFile(keyPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, computeScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	if creds.ProjectID == "" {
		return nil, fmt.Errorf("service account key does not contain a project ID")
	}
	if creds.ProjectID != projectID {
		return nil, fmt.Errorf("service account project %q does not match configured project %q",
			creds.ProjectID, projectID)
	}

	return creds, nil
}
