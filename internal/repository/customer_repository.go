package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomerRepository 会员数据访问接口
type CustomerRepository interface {
	GetByID(id uint) (*models.Customer, error)
	GetByIDForUpdate(id uint) (*models.Customer, error)
	GetByUserID(userID uint) (*models.Customer, error)
	GetByMemberNo(memberNo string) (*models.Customer, error)
	List(filter CustomerListFilter) ([]models.Customer, int64, error)
	Create(customer *models.Customer) error
	Update(customer *models.Customer) error
	TouchLastTransaction(customerID uint, at time.Time) error
	AddStamps(customerID uint, count int) (int64, error)
	ConsumeStamps(customerID uint, count int) (int64, error)
	SetBirthdayGiftYear(customerID uint, year int) (int64, error)
	WithTx(tx *gorm.DB) *GormCustomerRepository
}

// GormCustomerRepository GORM 实现
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建会员仓库
func NewCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCustomerRepository) WithTx(tx *gorm.DB) *GormCustomerRepository {
	if tx == nil {
		return r
	}
	return &GormCustomerRepository{db: tx}
}

// GetByID 根据 ID 获取会员
func (r *GormCustomerRepository) GetByID(id uint) (*models.Customer, error) {
	if id == 0 {
		return nil, nil
	}
	var customer models.Customer
	if err := r.db.First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// GetByIDForUpdate 根据 ID 加锁获取会员
func (r *GormCustomerRepository) GetByIDForUpdate(id uint) (*models.Customer, error) {
	if id == 0 {
		return nil, nil
	}
	var customer models.Customer
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// GetByUserID 根据用户 ID 获取会员
func (r *GormCustomerRepository) GetByUserID(userID uint) (*models.Customer, error) {
	if userID == 0 {
		return nil, nil
	}
	var customer models.Customer
	if err := r.db.Where("user_id = ?", userID).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// GetByMemberNo 根据会员号获取会员
func (r *GormCustomerRepository) GetByMemberNo(memberNo string) (*models.Customer, error) {
	memberNo = strings.TrimSpace(memberNo)
	if memberNo == "" {
		return nil, nil
	}
	var customer models.Customer
	if err := r.db.Where("member_no = ?", memberNo).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// List 分页查询会员列表
func (r *GormCustomerRepository) List(filter CustomerListFilter) ([]models.Customer, int64, error) {
	query := r.db.Model(&models.Customer{})
	if filter.MemberNo != "" {
		query = query.Where("customers.member_no = ?", filter.MemberNo)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.
			Joins("LEFT JOIN users ON users.id = customers.user_id").
			Where("(users.email LIKE ? OR users.display_name LIKE ? OR customers.member_no LIKE ?)", like, like, like)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("customers.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("customers.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var customers []models.Customer
	if err := query.Order("customers.id DESC").Find(&customers).Error; err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// Create 创建会员
func (r *GormCustomerRepository) Create(customer *models.Customer) error {
	return r.db.Create(customer).Error
}

// Update 更新会员
func (r *GormCustomerRepository) Update(customer *models.Customer) error {
	return r.db.Save(customer).Error
}

// TouchLastTransaction 只更新最近交易时间，不触碰余额计数列
func (r *GormCustomerRepository) TouchLastTransaction(customerID uint, at time.Time) error {
	if customerID == 0 {
		return nil
	}
	return r.db.Model(&models.Customer{}).
		Where("id = ?", customerID).
		UpdateColumn("last_transaction_at", at).Error
}

// AddStamps 增加会员印花余额与累计获得数
func (r *GormCustomerRepository) AddStamps(customerID uint, count int) (int64, error) {
	if customerID == 0 || count <= 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]interface{}{
			"current_stamps":      gorm.Expr("current_stamps + ?", count),
			"total_stamps_earned": gorm.Expr("total_stamps_earned + ?", count),
		})
	return result.RowsAffected, result.Error
}

// ConsumeStamps 扣减会员印花余额，带余额保护条件
// 返回受影响行数，调用方以 RowsAffected == 0 判定余额不足。
func (r *GormCustomerRepository) ConsumeStamps(customerID uint, count int) (int64, error) {
	if customerID == 0 || count <= 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Customer{}).
		Where("id = ? AND current_stamps >= ?", customerID, count).
		Updates(map[string]interface{}{
			"current_stamps":    gorm.Expr("current_stamps - ?", count),
			"total_stamps_used": gorm.Expr("total_stamps_used + ?", count),
		})
	return result.RowsAffected, result.Error
}

// SetBirthdayGiftYear 记录当年生日奖励已发放，同年重复发放时不更新任何行
func (r *GormCustomerRepository) SetBirthdayGiftYear(customerID uint, year int) (int64, error) {
	if customerID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Customer{}).
		Where("id = ? AND (last_birthday_gift_year IS NULL OR last_birthday_gift_year < ?)", customerID, year).
		Update("last_birthday_gift_year", year)
	return result.RowsAffected, result.Error
}
