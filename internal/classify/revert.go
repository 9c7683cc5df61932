package classify

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"txtracer/internal/model"
)

// Solidity error selectors: keccak256("Error(string)")[:4] and
// keccak256("Panic(uint256)")[:4].
var (
	errorSelector = []byte{0x08, 0xc3, 0x79, 0xa0}
	panicSelector = []byte{0x4e, 0x48, 0x7b, 0x71}
)

const (
	descOutOfGas       = "Gas 耗尽"
	descContractRevert = "合约执行回滚"
	descPanic          = "Solidity Panic 错误"
	descUnknown        = "未知错误"

	reasonUndecodableRevert = "无法解码回滚原因"
	reasonUndecodablePanic  = "无法解码 Panic 错误码"
	reasonNoRevertData      = "无法获取回滚数据"

	suggestUndecodableRevert = "请联系合约开发者获取更多信息。"
	suggestUndecodablePanic  = "合约存在严重逻辑错误，请联系合约开发者。"
	suggestUnknown           = "请检查交易参数是否正确，或联系合约开发者获取支持。"
)

// panicDescriptions maps the Solidity built-in panic codes to descriptions.
var panicDescriptions = map[uint64]string{
	0:  "断言失败 (Assert Failed)",
	1:  "算术溢出/下溢 (Arithmetic overflow/underflow)",
	17: "数组越界访问 (Array out-of-bounds)",
	18: "除以零 (Division by zero)",
	32: "枚举值越界 (Enum value out of range)",
	33: "错误的存储字节数组编码 (Invalid storage byte array encoding)",
	34: "空数组弹出 (Empty array pop)",
	49: "无效跳转目标 (Invalid jump destination)",
	50: "调用无效合约 (Call to invalid contract)",
	65: "内存分配失败 (Memory allocation failed)",
	81: "访问未初始化变量 (Access to uninitialized variable)",
}

var (
	revertArgsOnce sync.Once
	stringArgs     abi.Arguments
	uint256Args    abi.Arguments
	revertArgsErr  error
)

func revertArguments() (abi.Arguments, abi.Arguments, error) {
	revertArgsOnce.Do(func() {
		stringType, err := abi.NewType("string", "", nil)
		if err != nil {
			revertArgsErr = err
			return
		}
		uint256Type, err := abi.NewType("uint256", "", nil)
		if err != nil {
			revertArgsErr = err
			return
		}
		stringArgs = abi.Arguments{{Type: stringType}}
		uint256Args = abi.Arguments{{Type: uint256Type}}
	})
	return stringArgs, uint256Args, revertArgsErr
}

// DecodeRevert turns raw revert bytes into a FailureInfo. Every malformed
// input degrades to a fixed sentinel; this function never fails.
func DecodeRevert(data []byte, suggest Suggester) model.FailureInfo {
	raw := hexutil.Encode(data)

	switch {
	case bytes.HasPrefix(data, errorSelector):
		strArgs, _, err := revertArguments()
		if err == nil {
			if values, unpackErr := strArgs.Unpack(data[4:]); unpackErr == nil && len(values) == 1 {
				if reason, ok := values[0].(string); ok {
					return model.FailureInfo{
						ErrorCategory:     model.ErrContractRevert,
						ErrorCategoryDesc: descContractRevert,
						RevertReason:      &reason,
						RevertReasonRaw:   &raw,
						Suggestion:        suggest.ForRevert(reason),
					}
				}
			}
		}
		reason := reasonUndecodableRevert
		return model.FailureInfo{
			ErrorCategory:     model.ErrContractRevert,
			ErrorCategoryDesc: descContractRevert,
			RevertReason:      &reason,
			RevertReasonRaw:   &raw,
			Suggestion:        suggestUndecodableRevert,
		}

	case bytes.HasPrefix(data, panicSelector):
		_, uintArgs, err := revertArguments()
		if err == nil {
			if values, unpackErr := uintArgs.Unpack(data[4:]); unpackErr == nil && len(values) == 1 {
				if code, ok := asUint64(values[0]); ok {
					reason, known := panicDescriptions[code]
					if !known {
						reason = fmt.Sprintf("未知Panic错误码(%d)", code)
					}
					return model.FailureInfo{
						ErrorCategory:     model.ErrPanic,
						ErrorCategoryDesc: descPanic,
						RevertReason:      &reason,
						RevertReasonRaw:   &raw,
						Suggestion:        suggest.ForPanic(code),
					}
				}
			}
		}
		reason := reasonUndecodablePanic
		return model.FailureInfo{
			ErrorCategory:     model.ErrPanic,
			ErrorCategoryDesc: descPanic,
			RevertReason:      &reason,
			RevertReasonRaw:   &raw,
			Suggestion:        suggestUndecodablePanic,
		}

	default:
		reason := raw
		if len(data) == 0 {
			reason = reasonNoRevertData
		}
		return model.FailureInfo{
			ErrorCategory:     model.ErrUnknown,
			ErrorCategoryDesc: descUnknown,
			RevertReason:      &reason,
			RevertReasonRaw:   &raw,
			Suggestion:        suggestUnknown,
		}
	}
}

func asUint64(value interface{}) (uint64, bool) {
	switch v := value.(type) {
	case *big.Int:
		if !v.IsUint64() {
			return 0, false
		}
		return v.Uint64(), true
	case uint64:
		return v, true
	default:
		return 0, false
	}
}

// EncodeRevertReason ABI-encodes a reason string behind the Error(string)
// selector. Used by tests to build round-trip payloads.
func EncodeRevertReason(reason string) ([]byte, error) {
	strArgs, _, err := revertArguments()
	if err != nil {
		return nil, err
	}
	packed, err := strArgs.Pack(reason)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, errorSelector...), packed...), nil
}

// EncodePanicCode ABI-encodes a panic code behind the Panic(uint256)
// selector.
func EncodePanicCode(code uint64) ([]byte, error) {
	_, uintArgs, err := revertArguments()
	if err != nil {
		return nil, err
	}
	packed, err := uintArgs.Pack(new(big.Int).SetUint64(code))
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, panicSelector...), packed...), nil
}
