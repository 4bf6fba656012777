package amount

import (
	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
)

// Validate 校验费用金额并换算为 microcredits
//
// 🎯 **前置检查**：在任何证明工作开始之前运行。
//   - credits 无法精确换算（NaN、无穷、负数、超过 6 位小数、溢出）→ ErrInvalidAmount
//   - mustBePositive 且金额为 0 → ErrInvalidAmount
//   - 费用记录余额小于金额 → ErrInsufficientBalance
//
// feeRecord 为 nil 时只做换算，不检查余额。
func Validate(credits float64, feeRecord *types.Record, mustBePositive bool) (uint64, error) {
	amt, err := NewAmount(credits)
	if err != nil {
		return 0, err
	}
	if mustBePositive && !amt.IsPositive() {
		return 0, txerrors.WrapInvalidAmountError("amount must be positive")
	}
	if feeRecord != nil {
		if _, err := NewAmountFromUnits(feeRecord.Microcredits).Sub(amt); err != nil {
			return 0, err
		}
	}
	return amt.Units(), nil
}
