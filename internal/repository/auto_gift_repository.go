package repository

import (
	"errors"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// AutoGiftRepository 自动赠礼规则与发放记录数据访问接口
type AutoGiftRepository interface {
	GetRuleByID(id uint) (*models.AutoGiftRule, error)
	ListRules(filter AutoGiftRuleListFilter) ([]models.AutoGiftRule, int64, error)
	ListActiveRulesByTrigger(triggerType string) ([]models.AutoGiftRule, error)
	CreateRule(rule *models.AutoGiftRule) error
	UpdateRule(rule *models.AutoGiftRule) error
	DeleteRule(id uint) error
	GetHistory(ruleID, customerID uint) (*models.AutoGiftHistory, error)
	CreateHistory(history *models.AutoGiftHistory) error
	WithTx(tx *gorm.DB) *GormAutoGiftRepository
}

// GormAutoGiftRepository GORM 实现
type GormAutoGiftRepository struct {
	db *gorm.DB
}

// NewAutoGiftRepository 创建自动赠礼仓库
func NewAutoGiftRepository(db *gorm.DB) *GormAutoGiftRepository {
	return &GormAutoGiftRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAutoGiftRepository) WithTx(tx *gorm.DB) *GormAutoGiftRepository {
	if tx == nil {
		return r
	}
	return &GormAutoGiftRepository{db: tx}
}

// GetRuleByID 根据 ID 获取规则
func (r *GormAutoGiftRepository) GetRuleByID(id uint) (*models.AutoGiftRule, error) {
	if id == 0 {
		return nil, nil
	}
	var rule models.AutoGiftRule
	if err := r.db.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// ListRules 分页查询规则列表
func (r *GormAutoGiftRepository) ListRules(filter AutoGiftRuleListFilter) ([]models.AutoGiftRule, int64, error) {
	query := r.db.Model(&models.AutoGiftRule{})
	if filter.TriggerType != "" {
		query = query.Where("trigger_type = ?", filter.TriggerType)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var rules []models.AutoGiftRule
	if err := query.Order("priority DESC, id ASC").Find(&rules).Error; err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}

// ListActiveRulesByTrigger 获取指定触发类型下的启用规则，按优先级排序
func (r *GormAutoGiftRepository) ListActiveRulesByTrigger(triggerType string) ([]models.AutoGiftRule, error) {
	rules := make([]models.AutoGiftRule, 0)
	err := r.db.
		Where("trigger_type = ? AND is_active = ?", triggerType, true).
		Order("priority DESC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// CreateRule 创建规则
func (r *GormAutoGiftRepository) CreateRule(rule *models.AutoGiftRule) error {
	return r.db.Create(rule).Error
}

// UpdateRule 更新规则
func (r *GormAutoGiftRepository) UpdateRule(rule *models.AutoGiftRule) error {
	return r.db.Save(rule).Error
}

// DeleteRule 删除规则（软删除）
func (r *GormAutoGiftRepository) DeleteRule(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.AutoGiftRule{}, id).Error
}

// GetHistory 获取某条规则对某会员的发放记录
func (r *GormAutoGiftRepository) GetHistory(ruleID, customerID uint) (*models.AutoGiftHistory, error) {
	if ruleID == 0 || customerID == 0 {
		return nil, nil
	}
	var history models.AutoGiftHistory
	if err := r.db.Where("rule_id = ? AND customer_id = ?", ruleID, customerID).First(&history).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &history, nil
}

// CreateHistory 创建发放记录
// (rule_id, customer_id) 唯一索引兜底保证同一规则至多发放一次。
func (r *GormAutoGiftRepository) CreateHistory(history *models.AutoGiftHistory) error {
	return r.db.Create(history).Error
}
