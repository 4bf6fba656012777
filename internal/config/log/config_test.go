package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/weisyn/recordjoin/pkg/types"
)

func TestNew_UserConfigOverridesOnlyPresentFields(t *testing.T) {
	cfg := New(&types.UserLogConfig{Level: types.StringPtr("WARNING")})

	assert.Equal(t, zapcore.WarnLevel, cfg.GetZapLevel())
	assert.True(t, cfg.IsConsoleEnabled())
	assert.Equal(t, defaultMaxSize, cfg.GetMaxSize())
}

func TestNew_FilePathDisablesConsole(t *testing.T) {
	cfg := New(&types.UserLogConfig{FilePath: types.StringPtr("/tmp/x.log")})

	assert.False(t, cfg.IsConsoleEnabled())
	assert.Equal(t, "/tmp/x.log", cfg.GetFilePath())
}

func TestGetZapLevel_UnknownFallsBackToInfo(t *testing.T) {
	cfg := New(&LogOptions{Level: "verbose"})
	assert.Equal(t, zapcore.InfoLevel, cfg.GetZapLevel())

	assert.Equal(t, "info", New(&LogOptions{}).GetOptions().Level)
}
