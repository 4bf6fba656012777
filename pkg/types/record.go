package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/weisyn/recordjoin/pkg/utils/field"
)

// ErrInvalidRecord 记录格式错误
var ErrInvalidRecord = errors.New("invalid record")

// MicrocreditsPerCredit 1 credit = 1_000_000 microcredits
const MicrocreditsPerCredit uint64 = 1_000_000

// Record 私有价值记录
//
// 记录创建后不可变。承诺 cm = MiMC(owner, microcredits, nonce) 写入账本，
// 花费时公开序列号 sn = MiMC(sk, cm)，同一条记录最多被一次调用花费。
type Record struct {
	Owner        Address `json:"owner"`
	Microcredits uint64  `json:"microcredits"`
	Nonce        string  `json:"nonce"`
}

// NewRecord 创建记录
func NewRecord(owner Address, microcredits uint64, nonce field.Element) *Record {
	return &Record{
		Owner:        owner,
		Microcredits: microcredits,
		Nonce:        field.Hex(nonce),
	}
}

// ParseRecord 从 JSON 文本解析记录
func ParseRecord(text string) (*Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate 校验所有者和 nonce 的编码
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	if _, err := r.Owner.Field(); err != nil {
		return fmt.Errorf("%w: owner: %v", ErrInvalidRecord, err)
	}
	if _, err := field.FromHex(r.Nonce); err != nil {
		return fmt.Errorf("%w: nonce: %v", ErrInvalidRecord, err)
	}
	return nil
}

// NonceField nonce 域元素
func (r *Record) NonceField() (field.Element, error) {
	n, err := field.FromHex(r.Nonce)
	if err != nil {
		return n, fmt.Errorf("%w: nonce: %v", ErrInvalidRecord, err)
	}
	return n, nil
}

// Commitment 记录承诺
func (r *Record) Commitment() (field.Element, error) {
	owner, err := r.Owner.Field()
	if err != nil {
		return owner, fmt.Errorf("%w: owner: %v", ErrInvalidRecord, err)
	}
	nonce, err := r.NonceField()
	if err != nil {
		return nonce, err
	}
	return field.Hash(owner, field.FromUint64(r.Microcredits), nonce), nil
}

// SerialNumber 使用私钥计算序列号
func (r *Record) SerialNumber(sk field.Element) (field.Element, error) {
	cm, err := r.Commitment()
	if err != nil {
		return cm, err
	}
	return field.Hash(sk, cm), nil
}

// String 记录的 JSON 文本
func (r *Record) String() string {
	b, _ := json.Marshal(r)
	return string(b)
}
