package worker

import (
	"context"
	"encoding/json"

	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/provider"
	"github.com/loyalty-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskVoucherExpire, c.handleVoucherExpire)
}

// handleVoucherExpire 兑换券到期任务
// 过期与否由服务层按当前时间判定，任务只负责触发。
func (c *Consumer) handleVoucherExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_voucher_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.VoucherExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_voucher_expire_unmarshal_failed", "error", err)
		return err
	}
	if c.VoucherService == nil {
		logger.Warnw("worker_voucher_expire_skip_service_nil", "voucher_id", payload.VoucherID)
		return nil
	}
	if payload.VoucherID == 0 {
		expired, err := c.VoucherService.ExpireOverdueVouchers()
		if err != nil {
			logger.Warnw("worker_voucher_sweep_failed", "error", err)
			return err
		}
		if expired > 0 {
			logger.Infow("worker_voucher_sweep_done", "expired", expired)
		}
		return nil
	}
	if err := c.VoucherService.ExpireVoucher(payload.VoucherID); err != nil {
		logger.Warnw("worker_voucher_expire_failed", "voucher_id", payload.VoucherID, "error", err)
		return err
	}
	return nil
}
