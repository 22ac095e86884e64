package models

import "time"

// Customer 会员积分账户表（与 User 一对一）
// 约束：CurrentStamps = TotalStampsEarned - TotalStampsUsed 且恒不为负。
type Customer struct {
	ID                   uint       `gorm:"primarykey" json:"id"`                            // 主键
	UserID               uint       `gorm:"uniqueIndex;not null" json:"user_id"`             // 用户ID
	MemberNo             string     `gorm:"uniqueIndex;not null" json:"member_no"`           // 会员号（POS 扫码识别）
	CurrentStamps        int        `gorm:"not null;default:0" json:"current_stamps"`        // 当前可用印花数
	TotalStampsEarned    int        `gorm:"not null;default:0" json:"total_stamps_earned"`   // 累计获得印花数
	TotalStampsUsed      int        `gorm:"not null;default:0" json:"total_stamps_used"`     // 累计消耗印花数
	LastBirthdayGiftYear *int       `json:"last_birthday_gift_year"`                         // 最近一次生日奖励年份（幂等标记）
	LastTransactionAt    *time.Time `gorm:"index" json:"last_transaction_at"`                // 最近消费时间
	CreatedAt            time.Time  `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt            time.Time  `gorm:"index" json:"updated_at"`                         // 更新时间
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}
