package keystore

const (
	// defaultPath 默认不启用持久化
	defaultPath = ""

	// defaultCompress 密钥体积较大，默认压缩
	defaultCompress = true
)
