// Package field 提供 BN254 标量域元素的编码与 MiMC 哈希工具
//
// 🎯 **用途**：记录承诺、序列号、所有者地址和 Merkle 树都在同一个标量域上计算，
// 电路内（gnark std/hash/mimc）与电路外（gnark-crypto mimc）使用同一套参数，
// 因此这里算出来的值可以直接作为 witness 的公开输入。
package field

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// Element 标量域元素
type Element = fr.Element

// Size 元素的规范字节长度
const Size = fr.Bytes

// Hash 计算 MiMC(e1, e2, ...)
//
// 每次调用使用独立的 hasher，与电路内 hashVars 的构造方式保持一致。
func Hash(elems ...Element) Element {
	h := mimc.NewMiMC()
	for i := range elems {
		b := elems[i].Bytes()
		_, _ = h.Write(b[:])
	}
	var out Element
	out.SetBytes(h.Sum(nil))
	return out
}

// FromUint64 将 uint64 转换为域元素
func FromUint64(v uint64) Element {
	var e Element
	e.SetUint64(v)
	return e
}

// FromBytes 将任意字节按大端解释并模约化为域元素
func FromBytes(b []byte) Element {
	var e Element
	e.SetBytes(b)
	return e
}

// FromHex 解析十六进制编码（可带 0x 前缀）的规范域元素
//
// 非规范编码（数值大于等于模数）会被拒绝，避免同一个值有两种写法。
func FromHex(s string) (Element, error) {
	var e Element
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return e, fmt.Errorf("empty field element")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return e, fmt.Errorf("decode field element: %w", err)
	}
	if len(raw) > Size {
		return e, fmt.Errorf("field element too long: %d bytes", len(raw))
	}
	v := new(big.Int).SetBytes(raw)
	if v.Cmp(fr.Modulus()) >= 0 {
		return e, fmt.Errorf("field element not canonical")
	}
	e.SetBigInt(v)
	return e, nil
}

// Hex 返回域元素的定长十六进制编码（64 个字符，无前缀）
func Hex(e Element) string {
	b := e.Bytes()
	return hex.EncodeToString(b[:])
}

// Bytes 返回域元素的 32 字节大端编码
func Bytes(e Element) []byte {
	b := e.Bytes()
	return b[:]
}

// BigInt 返回域元素的 big.Int 表示，用于构造 witness 赋值
func BigInt(e Element) *big.Int {
	return e.BigInt(new(big.Int))
}
