package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestIMAPPassword(t *testing.T) {
	keyring.MockInit()
	acct := IMAPKeyringAccount("me@example.com", "imap.example.com")
	assert.Equal(t, "jobagent:imap:me@example.com@imap.example.com", acct)

	_, err := IMAPPassword(acct, "")
	assert.Error(t, err)

	pw, err := IMAPPassword(acct, "from-env")
	require.NoError(t, err)
	assert.Equal(t, "from-env", pw)

	require.NoError(t, SetIMAPPassword(acct, "from-keyring"))
	pw, err = IMAPPassword(acct, "from-env")
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", pw)

	require.NoError(t, DeleteIMAPPassword(acct))
	require.NoError(t, DeleteIMAPPassword(acct))
	assert.Error(t, SetIMAPPassword("", "x"))
	assert.Error(t, SetIMAPPassword(acct, " "))
}
