// Package amount 提供 credits 金额换算与费用金额校验
package amount

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/weisyn/recordjoin/pkg/txerrors"
)

// Amount 表示 credits 金额（使用最小单位 microcredits）
//
// 金额系统：
//   - 1 credit = 10^6 microcredits
//   - 使用 *big.Int 计算，换算只接受可以精确表示的十进制值
type Amount struct {
	value *big.Int
}

// 常量定义
const (
	// DecimalPlaces credits 的小数位数
	DecimalPlaces = 6

	// MicrocreditsPerCredit 1 credit 对应的 microcredits
	MicrocreditsPerCredit = 1_000_000
)

var (
	microPerCredit = big.NewInt(MicrocreditsPerCredit)
	maxUint64      = new(big.Int).SetUint64(math.MaxUint64)
)

// NewAmount 从 credits 浮点值创建 Amount
//
// 浮点值先格式化为最短的十进制表示，再按十进制精确换算：
//
//	NewAmount(1.5)      → 1500000 microcredits
//	NewAmount(0.000001) → 1 microcredit
//	NewAmount(0.0000001) → ErrInvalidAmount（超过 6 位小数）
func NewAmount(credits float64) (*Amount, error) {
	if math.IsNaN(credits) || math.IsInf(credits, 0) {
		return nil, txerrors.WrapInvalidAmountError(fmt.Sprintf("not a finite number: %v", credits))
	}
	if credits < 0 {
		return nil, txerrors.WrapInvalidAmountError(fmt.Sprintf("negative amount: %v", credits))
	}
	return NewAmountFromString(strconv.FormatFloat(credits, 'f', -1, 64))
}

// NewAmountFromString 从十进制 credits 字符串创建 Amount
//
// 支持格式："1"、"1.5"、"0.000001"、"1.500000"
func NewAmountFromString(s string) (*Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, txerrors.WrapInvalidAmountError("empty string")
	}
	if strings.HasPrefix(s, "-") {
		return nil, txerrors.WrapInvalidAmountError(fmt.Sprintf("negative amount: %s", s))
	}
	s = strings.TrimPrefix(s, "+")

	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasDot && frac == "" {
		return nil, txerrors.WrapInvalidAmountError(fmt.Sprintf("malformed amount: %s", s))
	}
	// 末尾的 0 不影响精度
	frac = strings.TrimRight(frac, "0")
	if len(frac) > DecimalPlaces {
		return nil, txerrors.WrapInvalidAmountError(fmt.Sprintf("more than %d decimal places: %s", DecimalPlaces, s))
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, txerrors.WrapInvalidAmountError(fmt.Sprintf("malformed amount: %s", s))
	}

	digits := whole + frac + strings.Repeat("0", DecimalPlaces-len(frac))
	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, txerrors.WrapInvalidAmountError(fmt.Sprintf("malformed amount: %s", s))
	}
	if value.Cmp(maxUint64) > 0 {
		return nil, txerrors.WrapInvalidAmountError(fmt.Sprintf("amount overflows microcredits: %s", s))
	}
	return &Amount{value: value}, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// NewAmountFromUnits 从 microcredits 创建 Amount
func NewAmountFromUnits(units uint64) *Amount {
	return &Amount{value: new(big.Int).SetUint64(units)}
}

// Sub 减法：a - b，结果为负数时返回余额不足
func (a *Amount) Sub(b *Amount) (*Amount, error) {
	if a == nil || b == nil {
		return nil, txerrors.WrapInvalidAmountError("nil amount")
	}
	result := new(big.Int).Sub(a.value, b.value)
	if result.Sign() < 0 {
		return nil, txerrors.WrapInsufficientBalanceError(b.Units(), a.Units())
	}
	return &Amount{value: result}, nil
}

// IsPositive 判断金额是否为正
func (a *Amount) IsPositive() bool {
	return a != nil && a.value.Sign() > 0
}

// Units 返回 microcredits 数量
func (a *Amount) Units() uint64 {
	if a == nil || !a.value.IsUint64() {
		return 0
	}
	return a.value.Uint64()
}

// String 转换为 credits 字符串（保留 6 位小数）
//
//	1500000 → "1.500000"
//	1 → "0.000001"
func (a *Amount) String() string {
	if a == nil {
		return "0.000000"
	}
	q, r := new(big.Int).QuoRem(a.value, microPerCredit, new(big.Int))
	return fmt.Sprintf("%s.%06d", q.String(), r.Int64())
}
