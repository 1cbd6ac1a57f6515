// Package auth manages Apple Music credentials: the ES256-signed developer
// token and the MusicKit user token.
//
// Developer tokens are minted locally from the .p8 private key downloaded
// from the Apple Developer portal and cached on disk until shortly before
// expiry. User tokens come from the MusicKit authorization flow (see the
// server package) and are stored alongside.
package auth

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/epheterson/mcp-applemusic/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// Apple caps developer token lifetime at six months.
	developerTokenTTL = 180 * 24 * time.Hour

	// Tokens within this window of expiry are reissued.
	refreshBuffer = 24 * time.Hour

	developerTokenFile = "developer_token.json"
	userTokenFile      = "user_token.json"
)

// cachedToken is the on-disk shape of a stored token.
type cachedToken struct {
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager mints, caches, and loads tokens. It implements the services
// token provider.
type Manager struct {
	teamID     string
	keyID      string
	keyPath    string
	storageDir string
	logger     *log.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// ManagerOpts configures a Manager.
type ManagerOpts struct {
	TeamID         string
	KeyID          string
	PrivateKeyPath string
	StorageDir     string
	Logger         *log.Logger
}

// NewManager creates a token manager. StorageDir defaults to the user
// config directory.
func NewManager(opts ManagerOpts) (*Manager, error) {
	if opts.StorageDir == "" {
		dir, err := shared.ConfigDir()
		if err != nil {
			return nil, err
		}
		opts.StorageDir = dir
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Manager{
		teamID:     opts.TeamID,
		keyID:      opts.KeyID,
		keyPath:    opts.PrivateKeyPath,
		storageDir: opts.StorageDir,
		logger:     opts.Logger,
		now:        time.Now,
	}, nil
}

// DeveloperToken returns a valid developer token, minting a fresh one when
// the cached token is missing or close to expiry.
func (m *Manager) DeveloperToken() (string, error) {
	cached, err := m.loadToken(developerTokenFile)
	if err == nil && m.now().Before(cached.ExpiresAt.Add(-refreshBuffer)) {
		return cached.Token, nil
	}

	token, expiresAt, err := m.mintDeveloperToken()
	if err != nil {
		return "", err
	}

	if err := m.saveToken(developerTokenFile, cachedToken{
		Token:     token,
		IssuedAt:  m.now(),
		ExpiresAt: expiresAt,
	}); err != nil {
		m.logger.Warnf("failed to cache developer token: %v", err)
	}

	return token, nil
}

// mintDeveloperToken signs a new ES256 JWT with the configured key.
func (m *Manager) mintDeveloperToken() (string, time.Time, error) {
	if m.teamID == "" || m.keyID == "" || m.keyPath == "" {
		return "", time.Time{}, fmt.Errorf("%w: team_id, key_id, and private_key_path are required", shared.ErrMissingConfig)
	}

	key, err := loadPrivateKey(m.keyPath)
	if err != nil {
		return "", time.Time{}, err
	}

	issuedAt := m.now()
	expiresAt := issuedAt.Add(developerTokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Issuer:    m.teamID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	token.Header["kid"] = m.keyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign developer token: %w", err)
	}

	m.logger.Debug("minted developer token", "expires_at", expiresAt)
	return signed, expiresAt, nil
}

// UserToken returns the stored MusicKit user token.
func (m *Manager) UserToken() (string, error) {
	cached, err := m.loadToken(userTokenFile)
	if err != nil {
		return "", fmt.Errorf("%w: run the auth command to authorize", shared.ErrMissingToken)
	}

	// Apple does not publish a user token lifetime; warn past six months.
	if age := m.now().Sub(cached.IssuedAt); age > developerTokenTTL {
		m.logger.Warn("user token is older than six months and may be rejected", "issued_at", cached.IssuedAt)
	}

	return cached.Token, nil
}

// SaveUserToken persists the MusicKit user token.
func (m *Manager) SaveUserToken(token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty user token", shared.ErrInvalidInput)
	}
	return m.saveToken(userTokenFile, cachedToken{
		Token:    token,
		IssuedAt: m.now(),
	})
}

// ClearTokens removes stored tokens, forcing reauthorization.
func (m *Manager) ClearTokens() error {
	for _, name := range []string{developerTokenFile, userTokenFile} {
		path := filepath.Join(m.storageDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

// Status describes the stored credential state.
type Status struct {
	DeveloperTokenValid   bool
	DeveloperTokenExpires time.Time
	UserTokenPresent      bool
	UserTokenIssued       time.Time
}

// Status reports what credentials are available without minting anything.
func (m *Manager) Status() Status {
	var s Status

	if cached, err := m.loadToken(developerTokenFile); err == nil {
		s.DeveloperTokenValid = m.now().Before(cached.ExpiresAt)
		s.DeveloperTokenExpires = cached.ExpiresAt
	}
	if cached, err := m.loadToken(userTokenFile); err == nil {
		s.UserTokenPresent = true
		s.UserTokenIssued = cached.IssuedAt
	}

	return s
}

func (m *Manager) loadToken(name string) (*cachedToken, error) {
	data, err := os.ReadFile(filepath.Join(m.storageDir, name))
	if err != nil {
		return nil, err
	}

	var token cachedToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse stored token: %w", err)
	}
	if token.Token == "" {
		return nil, fmt.Errorf("%w: stored token is empty", shared.ErrMissingToken)
	}
	return &token, nil
}

func (m *Manager) saveToken(name string, token cachedToken) error {
	if err := os.MkdirAll(m.storageDir, 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	path := filepath.Join(m.storageDir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// loadPrivateKey reads a PEM-encoded PKCS#8 EC private key (.p8 file).
func loadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block in private key file", shared.ErrInvalidConfig)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: private key is not an EC key", shared.ErrInvalidConfig)
	}
	return key, nil
}
