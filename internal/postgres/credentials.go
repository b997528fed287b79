package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// CredentialProvider supplies the password used when opening a new
// database connection. Implementations must be safe for concurrent
// use; the pool calls Password from its connect hook.
type CredentialProvider interface {
	Password(ctx context.Context) (string, error)
}

// StaticCredential returns a fixed password from configuration.
type StaticCredential struct {
	password string
}

// NewStaticCredential creates a StaticCredential.
func NewStaticCredential(password string) *StaticCredential {
	return &StaticCredential{password: password}
}

func (c *StaticCredential) Password(context.Context) (string, error) {
	return c.password, nil
}

// Azure AD scope for PostgreSQL flexible servers.
const postgresAADScope = "https://ossrdbms-aad.database.windows.net/.default"

// Tokens are refreshed this long before their recorded expiry.
const tokenRefreshMargin = 2 * time.Minute

// AADCredential fetches Azure AD access tokens and presents them as
// the connection password, refreshing ahead of expiry.
type AADCredential struct {
	credential *azidentity.DefaultAzureCredential

	mu        sync.Mutex
	token     string
	expiresOn time.Time
}

// NewAADCredential creates an AADCredential. clientID selects a
// user-assigned managed identity; leave it empty for the default chain.
func NewAADCredential(clientID string) (*AADCredential, error) {
	opts := &azidentity.DefaultAzureCredentialOptions{}
	if clientID != "" {
		opts.ManagedIdentityClientID = clientID
	}
	cred, err := azidentity.NewDefaultAzureCredential(opts)
	if err != nil {
		return nil, fmt.Errorf("create azure credential: %w", err)
	}
	return &AADCredential{credential: cred}, nil
}

func (c *AADCredential) Password(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiresOn.Add(-tokenRefreshMargin)) {
		return c.token, nil
	}

	tk, err := c.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{postgresAADScope},
	})
	if err != nil {
		return "", fmt.Errorf("get aad token: %w", err)
	}

	c.token = tk.Token
	c.expiresOn = tk.ExpiresOn
	return c.token, nil
}
