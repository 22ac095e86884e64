package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// JSON 类型定义，用于存储规则触发条件等半结构化内容
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, isString := value.(string); isString {
			bytes = []byte(s)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, j)
}

// AutoGiftRule 自动赠礼规则表
type AutoGiftRule struct {
	ID                uint           `gorm:"primarykey" json:"id"`                    // 主键
	Name              string         `gorm:"not null" json:"name"`                    // 规则名称
	TriggerType       string         `gorm:"index;not null" json:"trigger_type"`      // 触发类型
	TriggerValue      JSON           `gorm:"type:json" json:"trigger_value"`          // 触发条件（如 {"count": 10}）
	RewardType        string         `gorm:"not null" json:"reward_type"`             // 奖励类型（stamps/voucher）
	RewardStamps      int            `gorm:"not null;default:0" json:"reward_stamps"` // 奖励印花数
	RewardVoucherTier string         `gorm:"default:''" json:"reward_voucher_tier"`   // 奖励券档位
	Priority          int            `gorm:"not null;default:0" json:"priority"`      // 优先级（大者先评估）
	IsActive          bool           `gorm:"not null" json:"is_active"`               // 是否启用（不设列默认值，false 才能如实写入）
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                 // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                          // 软删除时间
}

// TableName 指定表名
func (AutoGiftRule) TableName() string {
	return "auto_gift_rules"
}
