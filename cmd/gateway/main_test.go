package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jarvisbot/jarvis-gateway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, config.Default().Server.Version, strings.TrimSpace(out.String()))
}

func TestBuildVersionPrefersLinkerValue(t *testing.T) {
	old := version
	t.Cleanup(func() { version = old })

	version = ""
	assert.Equal(t, "fallback", buildVersion("fallback"))
	version = "1.2.3"
	assert.Equal(t, "1.2.3", buildVersion("fallback"))
}

func TestNewRecorderDisabled(t *testing.T) {
	cfg := config.Default()
	recorder, closeFn, err := newRecorder(&cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, recorder)
	closeFn()
}
