package repository

import (
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// StampRepository 印花数据访问接口
type StampRepository interface {
	CreateBatch(stamps []models.Stamp) error
	List(filter StampListFilter) ([]models.Stamp, int64, error)
	MarkUsedOldest(customerID uint, count int, usedAt time.Time) (int64, error)
	CountByCustomerAndStatus(customerID uint, status string) (int64, error)
	WithTx(tx *gorm.DB) *GormStampRepository
}

// GormStampRepository GORM 实现
type GormStampRepository struct {
	db *gorm.DB
}

// NewStampRepository 创建印花仓库
func NewStampRepository(db *gorm.DB) *GormStampRepository {
	return &GormStampRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStampRepository) WithTx(tx *gorm.DB) *GormStampRepository {
	if tx == nil {
		return r
	}
	return &GormStampRepository{db: tx}
}

// CreateBatch 批量创建印花，每枚印花一行
func (r *GormStampRepository) CreateBatch(stamps []models.Stamp) error {
	if len(stamps) == 0 {
		return nil
	}
	return r.db.Create(&stamps).Error
}

// List 分页查询印花列表
func (r *GormStampRepository) List(filter StampListFilter) ([]models.Stamp, int64, error) {
	query := r.db.Model(&models.Stamp{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Reason != "" {
		query = query.Where("reason = ?", filter.Reason)
	}
	if filter.EarnedFrom != nil {
		query = query.Where("earned_at >= ?", *filter.EarnedFrom)
	}
	if filter.EarnedTo != nil {
		query = query.Where("earned_at <= ?", *filter.EarnedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var stamps []models.Stamp
	if err := query.Order("id DESC").Find(&stamps).Error; err != nil {
		return nil, 0, err
	}
	return stamps, total, nil
}

// MarkUsedOldest 按先进先出把指定数量的活跃印花标记为已用
func (r *GormStampRepository) MarkUsedOldest(customerID uint, count int, usedAt time.Time) (int64, error) {
	if customerID == 0 || count <= 0 {
		return 0, nil
	}
	// 子查询选出最早获得的 count 枚活跃印花
	sub := r.db.Model(&models.Stamp{}).
		Select("id").
		Where("customer_id = ? AND status = ?", customerID, constants.StampStatusActive).
		Order("earned_at ASC, id ASC").
		Limit(count)
	result := r.db.Model(&models.Stamp{}).
		Where("id IN (?)", sub).
		Updates(map[string]interface{}{
			"status":  constants.StampStatusUsed,
			"used_at": usedAt,
		})
	return result.RowsAffected, result.Error
}

// CountByCustomerAndStatus 统计会员指定状态的印花数量
func (r *GormStampRepository) CountByCustomerAndStatus(customerID uint, status string) (int64, error) {
	var count int64
	query := r.db.Model(&models.Stamp{}).Where("customer_id = ?", customerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
