package log

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevelForEnv(t *testing.T) {
	testCases := []struct {
		env      string
		expected zerolog.Level
	}{
		{env: "development", expected: zerolog.TraceLevel},
		{env: "local", expected: zerolog.TraceLevel},
		{env: "test", expected: zerolog.DebugLevel},
		{env: "production", expected: zerolog.InfoLevel},
		{env: "", expected: zerolog.InfoLevel},
	}
	for _, tC := range testCases {
		t.Run(tC.env, func(t *testing.T) {
			assert.Equal(t, tC.expected, LevelForEnv(tC.env))
		})
	}
}

func TestWriters(t *testing.T) {
	assert.Len(t, writers(""), 1)
	assert.Len(t, writers("/tmp/storefront-test.log"), 2)
}
