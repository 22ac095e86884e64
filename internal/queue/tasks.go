package queue

import (
	"encoding/json"

	"github.com/loyalty-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskVoucherExpire 兑换券到期任务
	TaskVoucherExpire = constants.TaskVoucherExpireSweep
)

// VoucherExpirePayload 兑换券到期任务载荷
// VoucherID 为 0 时表示全量清扫，否则只处理指定券。
type VoucherExpirePayload struct {
	VoucherID uint `json:"voucher_id"`
}

// NewVoucherExpireTask 创建兑换券到期任务
func NewVoucherExpireTask(payload VoucherExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVoucherExpire, body), nil
}
