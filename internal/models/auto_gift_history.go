package models

import "time"

// AutoGiftHistory 自动赠礼发放记录表
// (rule_id, customer_id) 唯一，保证同一规则对同一会员至多发放一次。
type AutoGiftHistory struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                           // 主键
	RuleID      uint      `gorm:"uniqueIndex:idx_gift_rule_customer;not null" json:"rule_id"`     // 规则ID
	CustomerID  uint      `gorm:"uniqueIndex:idx_gift_rule_customer;not null" json:"customer_id"` // 会员ID
	RewardGiven string    `gorm:"not null" json:"reward_given"`                                   // 实际发放内容描述
	GiftedAt    time.Time `gorm:"index;not null" json:"gifted_at"`                                // 发放时间
	CreatedAt   time.Time `json:"created_at"`                                                     // 创建时间
}

// TableName 指定表名
func (AutoGiftHistory) TableName() string {
	return "auto_gift_histories"
}
