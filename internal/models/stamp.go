package models

import "time"

// Stamp 印花流水表（一行代表一枚印花，只追加不删除）
type Stamp struct {
	ID            uint       `gorm:"primarykey" json:"id"`                      // 主键
	CustomerID    uint       `gorm:"index;not null" json:"customer_id"`         // 会员ID
	TransactionID *uint      `gorm:"uniqueIndex" json:"transaction_id"`         // 关联交易ID（非消费类奖励为空；一笔交易至多一枚）
	Status        string     `gorm:"index;not null;default:'active'" json:"status"` // 状态（active/used/expired）
	Reason        string     `gorm:"index;not null" json:"reason"`              // 来源标签
	EarnedAt      time.Time  `gorm:"index;not null" json:"earned_at"`           // 获得时间
	UsedAt        *time.Time `json:"used_at"`                                   // 消耗时间
	ExpiresAt     *time.Time `json:"expires_at"`                                // 过期时间（当前不启用按枚过期）
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt     time.Time  `json:"updated_at"`                                // 更新时间
}

// TableName 指定表名
func (Stamp) TableName() string {
	return "stamps"
}
