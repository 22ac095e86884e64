package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoucherRepository 兑换券数据访问接口
type VoucherRepository interface {
	GetByID(id uint) (*models.Voucher, error)
	GetByIDForUpdate(id uint) (*models.Voucher, error)
	GetByCode(code string) (*models.Voucher, error)
	GetByCodeForUpdate(code string) (*models.Voucher, error)
	List(filter VoucherListFilter) ([]models.Voucher, int64, error)
	Create(voucher *models.Voucher) error
	Update(voucher *models.Voucher) error
	MarkUsed(voucherID uint, usedAt time.Time) (int64, error)
	MarkExpired(voucherID uint, now time.Time) (int64, error)
	ExpireAllOverdue(now time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormVoucherRepository
}

// GormVoucherRepository GORM 实现
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository 创建兑换券仓库
func NewVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherRepository) WithTx(tx *gorm.DB) *GormVoucherRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherRepository{db: tx}
}

// GetByID 根据 ID 获取兑换券
func (r *GormVoucherRepository) GetByID(id uint) (*models.Voucher, error) {
	if id == 0 {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.First(&voucher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByIDForUpdate 根据 ID 加锁获取兑换券
func (r *GormVoucherRepository) GetByIDForUpdate(id uint) (*models.Voucher, error) {
	if id == 0 {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&voucher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByCode 根据券码获取兑换券
func (r *GormVoucherRepository) GetByCode(code string) (*models.Voucher, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Where("code = ?", code).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByCodeForUpdate 根据券码加锁获取兑换券
func (r *GormVoucherRepository) GetByCodeForUpdate(code string) (*models.Voucher, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// List 分页查询兑换券列表
func (r *GormVoucherRepository) List(filter VoucherListFilter) ([]models.Voucher, int64, error) {
	query := r.db.Model(&models.Voucher{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Tier != "" {
		query = query.Where("tier = ?", filter.Tier)
	}
	if filter.Code != "" {
		query = query.Where("code = ?", filter.Code)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var vouchers []models.Voucher
	if err := query.Order("id DESC").Find(&vouchers).Error; err != nil {
		return nil, 0, err
	}
	return vouchers, total, nil
}

// Create 创建兑换券
func (r *GormVoucherRepository) Create(voucher *models.Voucher) error {
	return r.db.Create(voucher).Error
}

// Update 更新兑换券
func (r *GormVoucherRepository) Update(voucher *models.Voucher) error {
	return r.db.Save(voucher).Error
}

// MarkUsed 把活跃券标记为已用
// 条件更新限定 status=ACTIVE，并发核销时只有一方能改到行。
func (r *GormVoucherRepository) MarkUsed(voucherID uint, usedAt time.Time) (int64, error) {
	if voucherID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Voucher{}).
		Where("id = ? AND status = ?", voucherID, constants.VoucherStatusActive).
		Updates(map[string]interface{}{
			"status":  constants.VoucherStatusUsed,
			"used_at": usedAt,
		})
	return result.RowsAffected, result.Error
}

// MarkExpired 把已过期的活跃券标记为过期
// 仅当 expires_at 确实早于 now 时生效，避免误杀未到期的券。
func (r *GormVoucherRepository) MarkExpired(voucherID uint, now time.Time) (int64, error) {
	if voucherID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Voucher{}).
		Where("id = ? AND status = ? AND expires_at < ?", voucherID, constants.VoucherStatusActive, now).
		Update("status", constants.VoucherStatusExpired)
	return result.RowsAffected, result.Error
}

// ExpireAllOverdue 批量把所有过期未用的活跃券标记为过期
func (r *GormVoucherRepository) ExpireAllOverdue(now time.Time) (int64, error) {
	result := r.db.Model(&models.Voucher{}).
		Where("status = ? AND expires_at < ?", constants.VoucherStatusActive, now).
		Update("status", constants.VoucherStatusExpired)
	return result.RowsAffected, result.Error
}
