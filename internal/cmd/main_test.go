package cmd

import (
	"os"
	"testing"

	"github.com/99designs/keyring"

	"github.com/precog/precog-cli/internal/config"
)

func TestMain(m *testing.M) {
	// Keep the developer's shell from leaking output modes or network checks into tests.
	_ = os.Setenv("PRECOG_OUTPUT", "text")
	_ = os.Setenv("PRECOG_NO_UPDATE_CHECK", "1")
	_ = os.Setenv("PRECOG_NO_CACHE", "1")

	cleanup := config.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return keyring.NewArrayKeyring(nil), nil
	})
	code := m.Run()
	cleanup()
	os.Exit(code)
}
