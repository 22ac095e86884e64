package repository

import (
	"errors"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// EmployeeRepository 员工数据访问接口
type EmployeeRepository interface {
	GetByUsername(username string) (*models.Employee, error)
	GetByID(id uint) (*models.Employee, error)
	List(filter EmployeeListFilter) ([]models.Employee, int64, error)
	Count() (int64, error)
	Create(employee *models.Employee) error
	Update(employee *models.Employee) error
	Delete(id uint) error
}

// GormEmployeeRepository GORM 实现
type GormEmployeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository 创建员工仓库
func NewEmployeeRepository(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

// GetByUsername 根据用户名获取员工
func (r *GormEmployeeRepository) GetByUsername(username string) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.Where("username = ?", username).First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &employee, nil
}

// GetByID 根据 ID 获取员工
func (r *GormEmployeeRepository) GetByID(id uint) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.First(&employee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &employee, nil
}

// List 分页查询员工列表
func (r *GormEmployeeRepository) List(filter EmployeeListFilter) ([]models.Employee, int64, error) {
	query := r.db.Model(&models.Employee{})
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("(username LIKE ? OR display_name LIKE ?)", like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.LocationID != 0 {
		query = query.Where("location_id = ?", filter.LocationID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	employees := make([]models.Employee, 0)
	if err := query.
		Select("id", "username", "display_name", "role", "location_id", "is_super", "last_login_at", "created_at").
		Order("id ASC").
		Find(&employees).Error; err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

// Count 统计员工数量
func (r *GormEmployeeRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Employee{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create 创建员工
func (r *GormEmployeeRepository) Create(employee *models.Employee) error {
	return r.db.Create(employee).Error
}

// Update 更新员工
func (r *GormEmployeeRepository) Update(employee *models.Employee) error {
	return r.db.Save(employee).Error
}

// Delete 删除员工（软删除）
func (r *GormEmployeeRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Employee{}, id).Error
}
