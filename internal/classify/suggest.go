package classify

import (
	"fmt"
	"strings"
)

// Suggester maps a classified failure to a human suggestion. It is an
// interface so the pattern tables can be swapped or extended without
// touching the classifier.
type Suggester interface {
	ForRevert(reason string) string
	ForPanic(code uint64) string
}

type revertPattern struct {
	keywords   []string
	suggestion string
}

// KeywordSuggester matches revert reasons case-insensitively against an
// ordered pattern list. Order matters: the first matching pattern wins.
type KeywordSuggester struct {
	patterns []revertPattern
	panics   map[uint64]string
}

// NewKeywordSuggester returns the built-in suggestion tables.
func NewKeywordSuggester() *KeywordSuggester {
	return &KeywordSuggester{
		patterns: []revertPattern{
			{[]string{"balance", "insufficient"}, "请检查您的代币余额是否充足。"},
			{[]string{"allowance", "approved"}, "请先调用 approve() 授权足够的代币额度。"},
			{[]string{"owner", "not owner", "caller"}, "您没有执行此操作的权限，请确认调用者地址是否正确。"},
			{[]string{"deadline", "expired"}, "交易已过期，请重新发起并使用更新的截止时间。"},
			{[]string{"slippage", "price impact"}, "价格滑点超出容忍范围，请调高滑点设置或减少交易金额。"},
			{[]string{"pause", "paused"}, "合约当前处于暂停状态，请稍后再试。"},
			{[]string{"zero", "invalid amount"}, "请确保交易金额大于零且参数合法。"},
		},
		panics: map[uint64]string{
			0:  "断言失败，合约内部状态异常，请联系开发者。",
			1:  "发生算术溢出或下溢，请检查计算参数是否超出范围。",
			17: "数组访问越界，请检查索引参数是否在有效范围内。",
			18: "发生除以零错误，请确保分母不为零。",
			32: "枚举值越界，请检查传入参数是否合法。",
			34: "对空数组执行了 pop() 操作，合约逻辑错误。",
			49: "无效的跳转目标，合约编译或部署存在问题。",
			50: "调用了无效合约（可能是地址为零或非合约地址）。",
			65: "内存分配失败，交易消耗 gas 可能过多。",
			81: "访问了未初始化的存储变量，合约存在逻辑缺陷。",
		},
	}
}

// ForRevert returns the suggestion for the first matching pattern.
func (s *KeywordSuggester) ForRevert(reason string) string {
	if reason == "" {
		return "请检查交易参数是否正确。"
	}
	lower := strings.ToLower(reason)
	for _, pattern := range s.patterns {
		for _, keyword := range pattern.keywords {
			if strings.Contains(lower, keyword) {
				return pattern.suggestion
			}
		}
	}
	return fmt.Sprintf("合约回滚原因：%s。请根据错误信息检查您的操作是否符合合约要求。", reason)
}

// ForPanic returns the suggestion for a panic code.
func (s *KeywordSuggester) ForPanic(code uint64) string {
	if suggestion, ok := s.panics[code]; ok {
		return suggestion
	}
	return "合约发生 Panic 错误，请联系合约开发者。"
}
