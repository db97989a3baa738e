package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"rekrybot/internal/config"
)

const (
	// “Service” groups the app's secrets in the OS keychain.
	KeyringService = "rekrybot"

	// PasswordEnv takes precedence over the keychain.
	PasswordEnv = "REKRYBOT_IMAP_PASSWORD"
)

var ErrNoPassword = errors.New("IMAP password not found (run `rekrybot set-password` or set " + PasswordEnv + ")")

func GetIMAPPassword(keyringAccount string) (string, error) {
	if pw := os.Getenv(PasswordEnv); strings.TrimSpace(pw) != "" {
		return pw, nil
	}

	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("keyring: %w", err)
		}
	}

	return "", ErrNoPassword
}

func SetIMAPPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeleteIMAPPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"rekrybot:imap:%s@%s",
		cfg.IMAP.Username,
		cfg.IMAP.Host,
	)
}
