package repository

import (
	"errors"
	"strings"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// LocationRepository 门店数据访问接口
type LocationRepository interface {
	GetByID(id uint) (*models.Location, error)
	GetByCode(code string) (*models.Location, error)
	List(filter LocationListFilter) ([]models.Location, int64, error)
	Create(location *models.Location) error
	Update(location *models.Location) error
	Delete(id uint) error
}

// GormLocationRepository GORM 实现
type GormLocationRepository struct {
	db *gorm.DB
}

// NewLocationRepository 创建门店仓库
func NewLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// GetByID 根据 ID 获取门店
func (r *GormLocationRepository) GetByID(id uint) (*models.Location, error) {
	if id == 0 {
		return nil, nil
	}
	var location models.Location
	if err := r.db.First(&location, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &location, nil
}

// GetByCode 根据门店编码获取门店
func (r *GormLocationRepository) GetByCode(code string) (*models.Location, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var location models.Location
	if err := r.db.Where("code = ?", code).First(&location).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &location, nil
}

// List 分页查询门店列表
func (r *GormLocationRepository) List(filter LocationListFilter) ([]models.Location, int64, error) {
	query := r.db.Model(&models.Location{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("(name LIKE ? OR code LIKE ? OR address LIKE ?)", like, like, like)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var locations []models.Location
	if err := query.Order("id ASC").Find(&locations).Error; err != nil {
		return nil, 0, err
	}
	return locations, total, nil
}

// Create 创建门店
func (r *GormLocationRepository) Create(location *models.Location) error {
	return r.db.Create(location).Error
}

// Update 更新门店
func (r *GormLocationRepository) Update(location *models.Location) error {
	return r.db.Save(location).Error
}

// Delete 删除门店（软删除）
func (r *GormLocationRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Location{}, id).Error
}
