package service

import (
	"strings"

	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
)

// LocationService 门店管理服务
type LocationService struct {
	locationRepo repository.LocationRepository
}

// NewLocationService 创建门店服务
func NewLocationService(locationRepo repository.LocationRepository) *LocationService {
	return &LocationService{locationRepo: locationRepo}
}

// LocationInput 门店创建/更新输入
type LocationInput struct {
	Name     string
	Code     string
	Address  string
	IsActive *bool
}

// GetLocation 获取门店
func (s *LocationService) GetLocation(id uint) (*models.Location, error) {
	location, err := s.locationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, ErrLocationNotFound
	}
	return location, nil
}

// ListLocations 分页查询门店列表
func (s *LocationService) ListLocations(filter repository.LocationListFilter) ([]models.Location, int64, error) {
	return s.locationRepo.List(filter)
}

// CreateLocation 创建门店
func (s *LocationService) CreateLocation(input LocationInput) (*models.Location, error) {
	name := strings.TrimSpace(input.Name)
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if name == "" || code == "" {
		return nil, ErrInvalidArgument
	}
	existing, err := s.locationRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrInvalidArgument
	}

	location := &models.Location{
		Name:     name,
		Code:     code,
		Address:  strings.TrimSpace(input.Address),
		IsActive: true,
	}
	if input.IsActive != nil {
		location.IsActive = *input.IsActive
	}
	if err := s.locationRepo.Create(location); err != nil {
		return nil, err
	}
	return location, nil
}

// UpdateLocation 更新门店
func (s *LocationService) UpdateLocation(id uint, input LocationInput) (*models.Location, error) {
	location, err := s.GetLocation(id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		location.Name = name
	}
	if code := strings.ToUpper(strings.TrimSpace(input.Code)); code != "" && code != location.Code {
		existing, err := s.locationRepo.GetByCode(code)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != location.ID {
			return nil, ErrInvalidArgument
		}
		location.Code = code
	}
	if input.Address != "" {
		location.Address = strings.TrimSpace(input.Address)
	}
	if input.IsActive != nil {
		location.IsActive = *input.IsActive
	}

	if err := s.locationRepo.Update(location); err != nil {
		return nil, err
	}
	return location, nil
}

// DeleteLocation 删除门店
func (s *LocationService) DeleteLocation(id uint) error {
	if _, err := s.GetLocation(id); err != nil {
		return err
	}
	return s.locationRepo.Delete(id)
}
