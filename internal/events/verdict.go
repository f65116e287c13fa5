package events

import "fmt"

// Verdict 是环节对一笔潜在交易的裁决。Volume 为 0 代表不交易，Reason 说明原因。
type Verdict struct {
	Volume float64
	Reason string
}

// Accept 返回接受裁决。非正手数视为拒绝。
func Accept(volume float64) Verdict {
	if volume <= 0 {
		return Reject("手数 %f 不为正", volume)
	}
	return Verdict{Volume: volume}
}

// Reject 返回拒绝裁决。
func Reject(format string, args ...interface{}) Verdict {
	return Verdict{Reason: fmt.Sprintf(format, args...)}
}

// Accepted 判断裁决是否放行。
func (v Verdict) Accepted() bool {
	return v.Volume > 0
}
