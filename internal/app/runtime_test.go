package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voyager-travel/voyager/internal/testing/guard"
)

func TestGuardEnablesTestMode(t *testing.T) {
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(guard.EnvVar, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())

	t.Setenv(guard.EnvVar, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())
}
