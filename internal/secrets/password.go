package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the app's secrets in the OS keychain.
	KeyringService = "jobagent"
)

// IMAPPassword returns the alert-inbox password: keyring first, then the
// fallback (usually JOBAGENT_IMAP_PASSWORD).
func IMAPPassword(account, fallback string) (string, error) {
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", errors.New("IMAP password not found (set it in the keychain or via JOBAGENT_IMAP_PASSWORD)")
}

func SetIMAPPassword(account string, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

func DeleteIMAPPassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	err := keyring.Delete(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func IMAPKeyringAccount(username, host string) string {
	return fmt.Sprintf("jobagent:imap:%s@%s", username, host)
}
