package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"recipebox/internal/logging"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logging.ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, logging.ParseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, logging.ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, logging.ParseLevel("loud"))
}

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { logging.Init(logging.Config{Level: "info"}) })

	log.Debug().Msg("hidden")
	log.Info().Uint("recipe_id", 7).Msg("recipe created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "recipe created", entry["message"])
	assert.Equal(t, float64(7), entry["recipe_id"])
	assert.Equal(t, "info", entry["level"])
}
