package models

import "time"

// BalanceAdjustment 手工调整审计表
// 与印花流水分开记录：这里保留管理员填写的调整原因全文。
type BalanceAdjustment struct {
	ID         uint      `gorm:"primarykey" json:"id"`              // 主键
	CustomerID uint      `gorm:"index;not null" json:"customer_id"` // 会员ID
	EmployeeID uint      `gorm:"index;not null" json:"employee_id"` // 操作员工ID
	Delta      int       `gorm:"not null" json:"delta"`             // 调整量（正数加、负数减）
	Reason     string    `gorm:"type:text;not null" json:"reason"`  // 调整原因（必填）
	CreatedAt  time.Time `gorm:"index" json:"created_at"`           // 创建时间
}

// TableName 指定表名
func (BalanceAdjustment) TableName() string {
	return "balance_adjustments"
}
