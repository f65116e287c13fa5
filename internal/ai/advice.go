package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action 为模型给出的方向建议。
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionNone Action = "NONE"
)

// Advice 表示大模型返回的交易建议。
type Advice struct {
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	Reasoning  string  `json:"reasoning"`
}

// Validate 校验建议字段合法性。
func (a Advice) Validate() error {
	switch a.Action {
	case ActionBuy, ActionSell, ActionNone:
	case "":
		return errors.New("action 不能为空")
	default:
		return fmt.Errorf("action 字段取值非法: %s", a.Action)
	}

	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence 必须在 [0,1] 区间，目前为 %f", a.Confidence)
	}
	if a.StopLoss < 0 || a.TakeProfit < 0 {
		return fmt.Errorf("止损止盈不能为负 sl=%f tp=%f", a.StopLoss, a.TakeProfit)
	}
	if a.Action != ActionNone && strings.TrimSpace(a.Reasoning) == "" {
		return errors.New("reasoning 不能为空")
	}
	return nil
}

func parseAdvice(content string) (Advice, error) {
	jsonPayload, err := extractJSON(content)
	if err != nil {
		return Advice{}, err
	}

	var advice Advice
	if err = json.Unmarshal(jsonPayload, &advice); err != nil {
		return Advice{}, fmt.Errorf("解析建议JSON失败: %w", err)
	}
	advice.Action = Action(strings.ToUpper(strings.TrimSpace(string(advice.Action))))

	return advice, nil
}

func extractJSON(content string) ([]byte, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")

	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("模型输出未找到有效JSON: %s", content)
	}

	return []byte(content[start : end+1]), nil
}
