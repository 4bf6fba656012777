package types

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"golang.org/x/crypto/blake2b"
)

// KeyPair 单个程序函数的 Groth16 证明密钥与验证密钥
type KeyPair struct {
	ProvingKey   groth16.ProvingKey
	VerifyingKey groth16.VerifyingKey
}

// VerifyingKeyHash 验证密钥哈希（blake2b-256，十六进制）
func (kp *KeyPair) VerifyingKeyHash() (string, error) {
	if kp == nil || kp.VerifyingKey == nil {
		return "", fmt.Errorf("verifying key is nil")
	}
	var buf bytes.Buffer
	if _, err := kp.VerifyingKey.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("serialize verifying key: %w", err)
	}
	sum := blake2b.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// MarshalKeyPair 序列化密钥对为 (pk, vk) 两段字节
func MarshalKeyPair(kp *KeyPair) ([]byte, []byte, error) {
	var pk, vk bytes.Buffer
	if _, err := kp.ProvingKey.WriteTo(&pk); err != nil {
		return nil, nil, fmt.Errorf("serialize proving key: %w", err)
	}
	if _, err := kp.VerifyingKey.WriteTo(&vk); err != nil {
		return nil, nil, fmt.Errorf("serialize verifying key: %w", err)
	}
	return pk.Bytes(), vk.Bytes(), nil
}

// MarshalVerifyingKey 序列化验证密钥
func MarshalVerifyingKey(vk groth16.VerifyingKey) ([]byte, error) {
	if vk == nil {
		return nil, fmt.Errorf("verifying key is nil")
	}
	var buf bytes.Buffer
	if _, err := vk.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize verifying key: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalProvingKey 反序列化 BN254 证明密钥
func UnmarshalProvingKey(data []byte) (groth16.ProvingKey, error) {
	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("deserialize proving key: %w", err)
	}
	return pk, nil
}

// UnmarshalVerifyingKey 反序列化 BN254 验证密钥
func UnmarshalVerifyingKey(data []byte) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("deserialize verifying key: %w", err)
	}
	return vk, nil
}

// UnmarshalKeyPair 反序列化密钥对
func UnmarshalKeyPair(pkData, vkData []byte) (*KeyPair, error) {
	pk, err := UnmarshalProvingKey(pkData)
	if err != nil {
		return nil, err
	}
	vk, err := UnmarshalVerifyingKey(vkData)
	if err != nil {
		return nil, err
	}
	return &KeyPair{ProvingKey: pk, VerifyingKey: vk}, nil
}

// ============================================================================
//                              调用方密钥选项
// ============================================================================

// KeyOptionKind 密钥选项类别
type KeyOptionKind int

const (
	// KeyOptionNone 未提供密钥，走缓存或合成
	KeyOptionNone KeyOptionKind = iota
	// KeyOptionSupplied 提供了完整密钥对，原样使用
	KeyOptionSupplied
	// KeyOptionPartial 只提供了其中一半，忽略并合成
	KeyOptionPartial
)

// String 实现 fmt.Stringer
func (k KeyOptionKind) String() string {
	switch k {
	case KeyOptionSupplied:
		return "supplied"
	case KeyOptionPartial:
		return "partial"
	default:
		return "none"
	}
}

// KeyOption 单个函数的调用方密钥选项
//
// 🎯 **语义**：把"提供 vs 合成"显式化。两半都提供时原样使用，
// 只提供一半时视为未提供（调用方会记录警告），零值等价于 NoKeys()。
type KeyOption struct {
	provingKey   groth16.ProvingKey
	verifyingKey groth16.VerifyingKey
}

// NoKeys 不提供密钥
func NoKeys() KeyOption { return KeyOption{} }

// SuppliedKeys 提供密钥（任一参数可为 nil，构成部分提供）
func SuppliedKeys(pk groth16.ProvingKey, vk groth16.VerifyingKey) KeyOption {
	return KeyOption{provingKey: pk, verifyingKey: vk}
}

// SuppliedKeyPair 由密钥对构造选项
func SuppliedKeyPair(kp *KeyPair) KeyOption {
	if kp == nil {
		return NoKeys()
	}
	return SuppliedKeys(kp.ProvingKey, kp.VerifyingKey)
}

// Kind 选项类别
func (o KeyOption) Kind() KeyOptionKind {
	switch {
	case o.provingKey != nil && o.verifyingKey != nil:
		return KeyOptionSupplied
	case o.provingKey != nil || o.verifyingKey != nil:
		return KeyOptionPartial
	default:
		return KeyOptionNone
	}
}

// KeyPair 完整提供时返回密钥对，否则返回 nil
func (o KeyOption) KeyPair() *KeyPair {
	if o.Kind() != KeyOptionSupplied {
		return nil
	}
	return &KeyPair{ProvingKey: o.provingKey, VerifyingKey: o.verifyingKey}
}
