package zkproof

import (
	"errors"
	"fmt"
	"strings"
)

// ==================== 证明后端错误 ====================

var (
	ErrCircuitNotFound          = errors.New("circuit not found")
	ErrCircuitCompilationFailed = errors.New("circuit compilation failed")
	ErrSetupFailed              = errors.New("trusted setup failed")
	ErrProofGenerationFailed    = errors.New("proof generation failed")
	ErrProofVerificationFailed  = errors.New("proof verification failed")
	ErrInvalidWitness           = errors.New("invalid witness")
	ErrInvalidProof             = errors.New("invalid proof")
)

// CircuitError 携带电路类别的证明错误
//
// errors.Is 同时匹配错误类别（上面的哨兵）和底层原因。
type CircuitError struct {
	Class  error  // 哨兵错误
	Kind   string // 电路类别，可能为空
	Reason string
	Cause  error
}

func (e *CircuitError) Error() string {
	var b strings.Builder
	b.WriteString(e.Class.Error())
	if e.Kind != "" {
		fmt.Fprintf(&b, " [%s]", e.Kind)
	}
	if e.Reason != "" {
		b.WriteString(": " + e.Reason)
	}
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	return b.String()
}

func (e *CircuitError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Class}
	}
	return []error{e.Class, e.Cause}
}

func WrapCircuitNotFoundError(kind string) error {
	return &CircuitError{Class: ErrCircuitNotFound, Kind: kind}
}

func WrapCircuitCompilationFailedError(kind string, err error) error {
	return &CircuitError{Class: ErrCircuitCompilationFailed, Kind: kind, Cause: err}
}

func WrapSetupFailedError(err error) error {
	return &CircuitError{Class: ErrSetupFailed, Cause: err}
}

func WrapProofGenerationFailedError(err error) error {
	return &CircuitError{Class: ErrProofGenerationFailed, Cause: err}
}

func WrapProofVerificationFailedError(err error) error {
	return &CircuitError{Class: ErrProofVerificationFailed, Cause: err}
}

// WrapInvalidWitnessError 输入无法构成合法见证（记录不属于签名密钥、金额溢出等）
func WrapInvalidWitnessError(kind, reason string) error {
	return &CircuitError{Class: ErrInvalidWitness, Kind: kind, Reason: reason}
}

func WrapInvalidProofError(reason string) error {
	return &CircuitError{Class: ErrInvalidProof, Reason: reason}
}
