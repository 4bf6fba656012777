// Package types provides account and signing key definitions.
package types

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/weisyn/recordjoin/pkg/utils/field"
)

// 账户相关错误
var (
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrInvalidAddress    = errors.New("invalid address")
)

// Address 记录所有者地址（所有者域元素的 base58 编码）
type Address string

// AddressFromField 由所有者域元素构造地址
func AddressFromField(owner field.Element) Address {
	return Address(base58.Encode(field.Bytes(owner)))
}

// Field 解析地址对应的所有者域元素
func (a Address) Field() (field.Element, error) {
	var zero field.Element
	raw, err := base58.Decode(string(a))
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != field.Size {
		return zero, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, field.Size, len(raw))
	}
	owner, err := field.FromHex(hex.EncodeToString(raw))
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return owner, nil
}

// String 实现 fmt.Stringer
func (a Address) String() string { return string(a) }

// PrivateKey 签名私钥
//
// 🎯 **双重用途**：
//   - secp256k1 私钥用于交易授权签名
//   - 由私钥派生的域元素 sk 用于记录所有权与序列号（owner = MiMC(sk)）
type PrivateKey struct {
	key *ecdsa.PrivateKey
	sk  field.Element
}

// NewPrivateKey 随机生成签名私钥
func NewPrivateKey() (*PrivateKey, error) {
	k, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return wrapPrivateKey(k), nil
}

// PrivateKeyFromHex 从十六进制解析签名私钥（可带 0x 前缀）
func PrivateKeyFromHex(s string) (*PrivateKey, error) {
	k, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return wrapPrivateKey(k), nil
}

// PrivateKeyFromSeed 使用种子前 32 字节构造私钥（助记词派生场景）
func PrivateKeyFromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) < 32 {
		return nil, fmt.Errorf("%w: seed too short", ErrInvalidPrivateKey)
	}
	k, err := crypto.ToECDSA(seed[:32])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return wrapPrivateKey(k), nil
}

func wrapPrivateKey(k *ecdsa.PrivateKey) *PrivateKey {
	digest := blake2b.Sum256(crypto.FromECDSA(k))
	return &PrivateKey{key: k, sk: field.FromBytes(digest[:])}
}

// Hex 私钥十六进制编码
func (k *PrivateKey) Hex() string {
	return hex.EncodeToString(crypto.FromECDSA(k.key))
}

// Bytes 私钥原始字节
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.key)
}

// SecretField 记录所有权使用的域元素私钥
func (k *PrivateKey) SecretField() field.Element {
	return k.sk
}

// Address 私钥对应的记录所有者地址
func (k *PrivateKey) Address() Address {
	return AddressFromField(field.Hash(k.sk))
}

// PublicKeyHex 压缩公钥十六进制编码
func (k *PrivateKey) PublicKeyHex() string {
	return hex.EncodeToString(crypto.CompressPubkey(&k.key.PublicKey))
}

// Sign 对 32 字节摘要签名，返回 65 字节 [R || S || V] 签名
func (k *PrivateKey) Sign(digest []byte) ([]byte, error) {
	return crypto.Sign(digest, k.key)
}

// VerifySignature 使用压缩公钥校验签名
func VerifySignature(pubKeyHex string, digest, sig []byte) bool {
	pub, err := hex.DecodeString(pubKeyHex)
	if err != nil || len(sig) < 64 {
		return false
	}
	return crypto.VerifySignature(pub, digest, sig[:64])
}
