package repository

import (
	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// BalanceAdjustmentRepository 手工调整审计数据访问接口
type BalanceAdjustmentRepository interface {
	Create(adjustment *models.BalanceAdjustment) error
	List(filter BalanceAdjustmentListFilter) ([]models.BalanceAdjustment, int64, error)
	WithTx(tx *gorm.DB) *GormBalanceAdjustmentRepository
}

// GormBalanceAdjustmentRepository GORM 实现
type GormBalanceAdjustmentRepository struct {
	db *gorm.DB
}

// NewBalanceAdjustmentRepository 创建手工调整仓库
func NewBalanceAdjustmentRepository(db *gorm.DB) *GormBalanceAdjustmentRepository {
	return &GormBalanceAdjustmentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBalanceAdjustmentRepository) WithTx(tx *gorm.DB) *GormBalanceAdjustmentRepository {
	if tx == nil {
		return r
	}
	return &GormBalanceAdjustmentRepository{db: tx}
}

// Create 创建手工调整记录
func (r *GormBalanceAdjustmentRepository) Create(adjustment *models.BalanceAdjustment) error {
	return r.db.Create(adjustment).Error
}

// List 分页查询手工调整记录
func (r *GormBalanceAdjustmentRepository) List(filter BalanceAdjustmentListFilter) ([]models.BalanceAdjustment, int64, error) {
	query := r.db.Model(&models.BalanceAdjustment{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.EmployeeID != 0 {
		query = query.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var adjustments []models.BalanceAdjustment
	if err := query.Order("id DESC").Find(&adjustments).Error; err != nil {
		return nil, 0, err
	}
	return adjustments, total, nil
}
