package dto

import (
	"bytes"
	"encoding/json"
)

// NumericInput 数值型输入：兼容 JSON 数字与字符串（如 "12"），
// 原样保留文本，由 service 层解析并给出业务校验信息。
type NumericInput string

// UnmarshalJSON 接受数字或字符串字面量
func (n *NumericInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumericInput(s)
		return nil
	}
	*n = NumericInput(b)
	return nil
}

// Num 构造 NumericInput 指针（测试与内部调用使用）
func Num(s string) *NumericInput {
	n := NumericInput(s)
	return &n
}
