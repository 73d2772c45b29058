package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvPrefersLoadedMap(t *testing.T) {
	Env = map[string]string{"ONLYONE_TEST_KEY": "from-map"}
	defer func() { Env = nil }()
	t.Setenv("ONLYONE_TEST_KEY", "from-os")

	assert.Equal(t, "from-map", GetEnv("ONLYONE_TEST_KEY", "def"))
}

func TestGetEnvFallsBackToOS(t *testing.T) {
	Env = nil
	t.Setenv("ONLYONE_TEST_KEY", "from-os")
	assert.Equal(t, "from-os", GetEnv("ONLYONE_TEST_KEY", "def"))
	assert.Equal(t, "def", GetEnv("ONLYONE_TEST_MISSING", "def"))
}

func TestTypedGetters(t *testing.T) {
	Env = map[string]string{
		"B_OK":  "true",
		"B_BAD": "maybe",
		"I_OK":  "42",
		"I_BAD": "x",
		"D_OK":  "90s",
		"D_BAD": "soon",
	}
	defer func() { Env = nil }()

	assert.True(t, GetBool("B_OK", false))
	assert.False(t, GetBool("B_BAD", false))
	assert.True(t, GetBool("B_MISSING", true))
	assert.Equal(t, 42, GetInt("I_OK", 1))
	assert.Equal(t, 1, GetInt("I_BAD", 1))
	assert.Equal(t, 90*time.Second, GetDuration("D_OK", time.Second))
	assert.Equal(t, time.Second, GetDuration("D_BAD", time.Second))
}
