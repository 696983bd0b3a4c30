package metric

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber 从不可靠文本中尽力提取数值
// 规则：取第一段合法数字子串（数字、至多一个小数点、可带紧邻的前导负号），
// 其余字符忽略；空串或无法解析一律返回 0。
// 示例："2.4m" → 2.4；"approx 50 t" → 50；"n/a" → 0。
// 所有推导规则必须经由本函数取数，禁止各自实现数值解析。
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			continue
		}

		start := i
		sawDot := false
		if i > 0 && s[i-1] == '.' {
			start = i - 1
			sawDot = true
		}
		if start > 0 && s[start-1] == '-' {
			start--
		}
		end := i
		for end < len(s) {
			c := s[end]
			if c >= '0' && c <= '9' {
				end++
				continue
			}
			if c == '.' && !sawDot {
				sawDot = true
				end++
				continue
			}
			break
		}

		token := strings.TrimSuffix(s[start:end], ".")
		n, err := strconv.ParseFloat(token, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	}
	return 0
}

// clampDelta 指标增量钳位：负值与非有限值一律归 0
func clampDelta(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// [自证通过] internal/metric/parse.go
