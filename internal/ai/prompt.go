package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"trades-director/internal/indicator"
)

const adviceTemplate = `
你是一个严谨的量化交易员，只根据给出的指标判断 {{ .Symbol }} 下一根K线的方向。

指标摘要（{{ .Timeframe }} 周期）：
{{ .IndicatorsJSON }}

本策略当前持仓：多头 {{ .Long }} 笔，空头 {{ .Short }} 笔。

规则：
1. 已有同向持仓时不要重复建议同一方向；
2. 信号不明确时返回 NONE；
3. 给出止损价，止盈可为 0；价格必须与最新收盘价 {{ printf "%.6f" .Indicators.Close }} 处在合理距离。

请严格输出唯一的 JSON 对象：
{
  "action": "BUY|SELL|NONE",
  "confidence": 0.0-1.0,
  "stop_loss": 0.0,
  "take_profit": 0.0,
  "reasoning": "..."
}
`

var tmpl = template.Must(template.New("advice").Parse(adviceTemplate))

// Request 为一次建议所需的上下文。
type Request struct {
	Symbol     string
	Timeframe  string
	Indicators indicator.Snapshot
	Long       int
	Short      int
}

type promptContext struct {
	Request
	IndicatorsJSON string
}

// BuildPrompt 将指标与持仓信息渲染成提示词字符串。
func BuildPrompt(req Request) (string, error) {
	indicatorsJSON, err := json.MarshalIndent(req.Indicators, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化指标失败: %w", err)
	}

	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, promptContext{Request: req, IndicatorsJSON: string(indicatorsJSON)}); err != nil {
		return "", fmt.Errorf("渲染提示词失败: %w", err)
	}

	return buf.String(), nil
}
