package models

import "time"

// Voucher 兑换券表
// 状态机：ACTIVE → USED（核销，终态）或 ACTIVE → EXPIRED（超时，终态）。
// 兑换时扣除的印花不随过期返还。
type Voucher struct {
	ID         uint       `gorm:"primarykey" json:"id"`              // 主键
	CustomerID uint       `gorm:"index;not null" json:"customer_id"` // 会员ID
	Code       string     `gorm:"uniqueIndex;not null" json:"code"`  // 券码（全局唯一，可口头报出）
	Tier       string     `gorm:"not null" json:"tier"`              // 档位（SMALL/LARGE）
	StampsUsed int        `gorm:"not null" json:"stamps_used"`       // 兑换消耗印花数
	Status     string     `gorm:"index;not null;default:'ACTIVE'" json:"status"` // 状态
	QRCodeData string     `gorm:"type:text" json:"qr_code_data"`     // 二维码负载（对端不感知格式）
	ExpiresAt  time.Time  `gorm:"index;not null" json:"expires_at"`  // 过期时间
	UsedAt     *time.Time `json:"used_at"`                           // 核销时间
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`           // 创建时间
	UpdatedAt  time.Time  `json:"updated_at"`                        // 更新时间
}

// TableName 指定表名
func (Voucher) TableName() string {
	return "vouchers"
}
