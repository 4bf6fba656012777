// Package types provides configuration type definitions.
package types

// AppConfig 应用程序根配置
// 只包含JSON配置文件解析所需的结构，不包含任何内部字段
// 默认值和完整配置结构在 internal/config/*/defaults.go 和 internal/config/*/config.go 中定义
type AppConfig struct {
	// 应用程序基本信息
	AppName *string `json:"app_name,omitempty"` // 应用名称
	DataDir *string `json:"data_dir,omitempty"` // 数据目录路径

	// 日志配置
	Log *UserLogConfig `json:"log,omitempty"`

	// 证明后端配置
	Prover *UserProverConfig `json:"prover,omitempty"`

	// 远程账本节点配置
	Node *UserNodeConfig `json:"node,omitempty"`

	// 持久化密钥库配置
	KeyStore *UserKeyStoreConfig `json:"keystore,omitempty"`

	// 交易存储配置
	TxStore *UserTxStoreConfig `json:"txstore,omitempty"`
}

// UserLogConfig 用户日志配置
// 只包含JSON配置文件中实际出现的字段
type UserLogConfig struct {
	Level    *string `json:"level,omitempty"`     // 日志级别：debug, info, warn, error, fatal
	FilePath *string `json:"file_path,omitempty"` // 日志文件路径
}

// UserProverConfig 用户证明后端配置
type UserProverConfig struct {
	MerkleDepth   *int  `json:"merkle_depth,omitempty"`   // 承诺树深度
	SilenceGnark  *bool `json:"silence_gnark,omitempty"`  // 是否静默 gnark 内部日志
	VerifyOnProve *bool `json:"verify_on_prove,omitempty"` // 生成证明后是否立即本地验证
}

// UserNodeConfig 用户节点配置
type UserNodeConfig struct {
	URL            *string `json:"url,omitempty"`             // 节点 REST 地址
	TimeoutSeconds *int    `json:"timeout_seconds,omitempty"` // 单次请求超时（秒）
	ListenAddr     *string `json:"listen_addr,omitempty"`     // 开发节点（mocknode）监听地址
}

// UserKeyStoreConfig 用户密钥库配置
type UserKeyStoreConfig struct {
	Path     *string `json:"path,omitempty"`     // badger 数据目录，留空则只使用内存缓存
	Compress *bool   `json:"compress,omitempty"` // 是否使用 snappy 压缩密钥
}

// UserTxStoreConfig 用户交易存储配置
type UserTxStoreConfig struct {
	Backend   *string `json:"backend,omitempty"`    // memory | redis
	RedisAddr *string `json:"redis_addr,omitempty"` // Redis 地址
	RedisDB   *int    `json:"redis_db,omitempty"`   // Redis DB
	KeyPrefix *string `json:"key_prefix,omitempty"` // 键前缀
	TTLHours  *int    `json:"ttl_hours,omitempty"`  // 过期时间（小时），0 表示不过期
}
