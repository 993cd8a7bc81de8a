package secrets

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"internlee-engine/internal/config"

	"github.com/zalando/go-keyring"
)

const (
	// "Service" groups the engine's secrets in the OS keychain.
	KeyringService = "internlee-engine"
)

var ErrNotFound = errors.New("store password not found in keychain")

// Keyring is the subset of go-keyring used here, swappable in tests.
type Keyring interface {
	Get(service, user string) (string, error)
	Set(service, user, password string) error
	Delete(service, user string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, user string) (string, error) { return keyring.Get(service, user) }
func (osKeyring) Set(service, user, pw string) error       { return keyring.Set(service, user, pw) }
func (osKeyring) Delete(service, user string) error        { return keyring.Delete(service, user) }

// OS is the system keychain.
var OS Keyring = osKeyring{}

func GetStorePassword(kr Keyring, account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("keyring account name is empty")
	}
	pw, err := kr.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && strings.TrimSpace(pw) == "") {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return pw, nil
}

func SetStorePassword(kr Keyring, account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return kr.Set(KeyringService, account, password)
}

func DeleteStorePassword(kr Keyring, account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return kr.Delete(KeyringService, account)
}

// StoreKeyringAccount is the keychain entry for the configured store.
// An explicit store.keyring_account wins; otherwise it is derived from the DSN.
func StoreKeyringAccount(cfg config.Config) string {
	if a := strings.TrimSpace(cfg.Store.KeyringAccount); a != "" {
		return a
	}
	host, user := cfg.Store.DSN, ""
	if u, err := url.Parse(cfg.Store.DSN); err == nil && u.Host != "" {
		host = u.Host
		user = u.User.Username()
	}
	return fmt.Sprintf("internlee:%s:%s@%s", cfg.Store.Driver, user, host)
}

// ResolveStorePassword fills cfg.Store.Password from the keychain when the
// environment did not provide one. Missing keychain entries are not an error:
// the DSN may already carry credentials.
func ResolveStorePassword(kr Keyring, cfg *config.Config) error {
	if cfg.Store.Password != "" || cfg.Store.Driver != "postgres" {
		return nil
	}
	pw, err := GetStorePassword(kr, StoreKeyringAccount(*cfg))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store password from keychain: %w", err)
	}
	cfg.Store.Password = pw
	return nil
}
