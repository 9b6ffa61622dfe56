package econ

import (
	"fmt"

	"citydesk/internal/cityapi"
)

// MsgSelfTransfer is shown when the user picks the same agent on both sides
// of a transfer; the request is never sent.
const MsgSelfTransfer = "不能转赠给自己"

// CheckInReasons maps check-in rejection codes to display text. Codes absent
// from the table pass through verbatim so new backend reasons degrade
// gracefully instead of being swallowed.
var CheckInReasons = map[string]string{
	"already_checked_in": "今日已打卡",
	"job_full":           "岗位已满",
	"agent_not_found":    "Agent 不存在",
}

var PurchaseReasons = map[string]string{
	"insufficient_credits": "余额不足",
	"already_owned":        "已拥有该物品",
	"agent_not_found":      "Agent 不存在",
	"item_not_found":       "商品不存在",
}

func ReasonText(table map[string]string, code string) string {
	if table != nil {
		if text, ok := table[code]; ok {
			return text
		}
	}
	return code
}

func CheckInSuccess(out cityapi.ActionOutcome) string {
	return fmt.Sprintf("打卡成功！获得 %d 信用点", out.Reward)
}

func PurchaseSuccess(out cityapi.ActionOutcome) string {
	return fmt.Sprintf("购买成功！花费 %d 信用点，剩余 %d", out.Price, out.RemainingCredits)
}

// TransferSuccess relays the backend's display-ready reason text.
func TransferSuccess(out cityapi.ActionOutcome) string {
	return out.Reason
}
