package prover

const (
	// defaultMerkleDepth 承诺树默认深度（2^16 个叶子）
	defaultMerkleDepth = 16

	// maxMerkleDepth 允许配置的最大深度
	maxMerkleDepth = 32

	// defaultSilenceGnark 默认静默 gnark 的 zerolog 输出
	defaultSilenceGnark = true

	// defaultVerifyOnProve 默认在证明生成后做一次本地验证
	defaultVerifyOnProve = true
)
