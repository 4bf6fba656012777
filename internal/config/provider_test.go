package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/recordjoin/configs"
	"github.com/weisyn/recordjoin/internal/config/txstore"
	"github.com/weisyn/recordjoin/pkg/types"
)

// TestProviderDefaults 测试未配置时的默认值
func TestProviderDefaults(t *testing.T) {
	provider := NewProvider(nil)

	logOpts := provider.GetLog()
	assert.Equal(t, "info", logOpts.Level)
	assert.True(t, logOpts.ToConsole)

	proverOpts := provider.GetProver()
	assert.Equal(t, 16, proverOpts.MerkleDepth)
	assert.True(t, proverOpts.SilenceGnark)

	nodeOpts := provider.GetNode()
	assert.Equal(t, "http://127.0.0.1:3030", nodeOpts.URL)
	assert.Equal(t, 30*time.Second, nodeOpts.Timeout)

	assert.Empty(t, provider.GetKeyStore().Path)
	assert.Equal(t, txstore.BackendMemory, provider.GetTxStore().Backend)
}

// TestProviderUserOverrides 测试用户配置覆盖
func TestProviderUserOverrides(t *testing.T) {
	cfg := &types.AppConfig{
		Log:    &types.UserLogConfig{Level: types.StringPtr("debug"), FilePath: types.StringPtr("/tmp/rj.log")},
		Prover: &types.UserProverConfig{MerkleDepth: types.IntPtr(8), VerifyOnProve: types.BoolPtr(false)},
		Node:   &types.UserNodeConfig{URL: types.StringPtr("http://node:3030/"), TimeoutSeconds: types.IntPtr(5)},
		TxStore: &types.UserTxStoreConfig{
			Backend:  types.StringPtr("redis"),
			TTLHours: types.IntPtr(0),
		},
	}
	provider := NewProvider(cfg)

	logOpts := provider.GetLog()
	assert.Equal(t, "debug", logOpts.Level)
	assert.Equal(t, "/tmp/rj.log", logOpts.FilePath)
	assert.False(t, logOpts.ToConsole, "指定文件路径时默认不输出到控制台")

	assert.Equal(t, 8, provider.GetProver().MerkleDepth)
	assert.False(t, provider.GetProver().VerifyOnProve)

	assert.Equal(t, "http://node:3030", provider.GetNode().URL)
	assert.Equal(t, 5*time.Second, provider.GetNode().Timeout)

	assert.Equal(t, txstore.BackendRedis, provider.GetTxStore().Backend)
	assert.Equal(t, time.Duration(0), provider.GetTxStore().TTL)
}

// TestProviderInvalidValuesFallBack 测试非法值回退到默认值
func TestProviderInvalidValuesFallBack(t *testing.T) {
	cfg := &types.AppConfig{
		Prover:  &types.UserProverConfig{MerkleDepth: types.IntPtr(99)},
		TxStore: &types.UserTxStoreConfig{Backend: types.StringPtr("sqlite")},
	}
	provider := NewProvider(cfg)
	assert.Equal(t, 16, provider.GetProver().MerkleDepth)
	assert.Equal(t, txstore.BackendMemory, provider.GetTxStore().Backend)
}

// TestKeyStoreDerivedFromDataDir 测试密钥库路径由 data_dir 推导
func TestKeyStoreDerivedFromDataDir(t *testing.T) {
	provider := NewProvider(&types.AppConfig{DataDir: types.StringPtr("/var/lib/rj")})
	assert.Equal(t, "/var/lib/rj/keys", provider.GetKeyStore().Path)

	// 显式设置为空字符串时不推导
	provider = NewProvider(&types.AppConfig{
		DataDir:  types.StringPtr("/var/lib/rj"),
		KeyStore: &types.UserKeyStoreConfig{Path: types.StringPtr("")},
	})
	assert.Empty(t, provider.GetKeyStore().Path)
}

// TestLoadAppConfig 测试配置文件加载
func TestLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"node":{"url":"http://x:1"},"keystore":{"path":"/k"}}`), 0o600))

	cfg, err := LoadAppConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Node)
	assert.Equal(t, "http://x:1", *cfg.Node.URL)
	assert.Equal(t, "/k", NewProvider(cfg).GetKeyStore().Path)

	missing, err := LoadAppConfig(filepath.Join(dir, "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, missing.Node)

	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))
	_, err = LoadAppConfig(path)
	require.Error(t, err)
}

// TestEmbeddedTemplateMatchesDefaults 内嵌模板解析后与默认值一致
func TestEmbeddedTemplateMatchesDefaults(t *testing.T) {
	appConfig, err := ParseAppConfig(configs.DefaultConfig())
	require.NoError(t, err)

	fromTemplate := NewProvider(appConfig)
	defaults := NewProvider(nil)

	assert.Equal(t, defaults.GetProver(), fromTemplate.GetProver())
	assert.Equal(t, defaults.GetNode(), fromTemplate.GetNode())
	assert.Equal(t, defaults.GetKeyStore(), fromTemplate.GetKeyStore())
	assert.Equal(t, defaults.GetTxStore(), fromTemplate.GetTxStore())
	assert.Equal(t, defaults.GetLog().Level, fromTemplate.GetLog().Level)
}
