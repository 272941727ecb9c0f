package swapvault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iov-one/swapvault"
)

func TestVersion(t *testing.T) {
	swapvault.GitCommit = ""
	assert.Equal(t, "v0.1.0-dev", swapvault.Version())

	swapvault.GitCommit = "12345678"
	assert.Equal(t, "v0.1.0-dev 12345678", swapvault.Version())
	swapvault.GitCommit = ""
}
