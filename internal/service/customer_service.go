package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
)

const (
	memberNoPrefix      = "LM"
	memberNoMaxAttempts = 5
)

// CustomerService 会员服务
type CustomerService struct {
	customerRepo repository.CustomerRepository
}

// NewCustomerService 创建会员服务
func NewCustomerService(customerRepo repository.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

// EnsureCustomerForUser 为用户开通会员档案（已存在则直接返回）
func (s *CustomerService) EnsureCustomerForUser(userID uint) (*models.Customer, error) {
	if userID == 0 {
		return nil, ErrInvalidArgument
	}
	existing, err := s.customerRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	for attempt := 0; attempt < memberNoMaxAttempts; attempt++ {
		memberNo := generateMemberNo(now)
		conflict, err := s.customerRepo.GetByMemberNo(memberNo)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			continue
		}
		customer := &models.Customer{
			UserID:   userID,
			MemberNo: memberNo,
		}
		if err := s.customerRepo.Create(customer); err != nil {
			// user_id 唯一索引兜底：并发注册时回查已建档案
			current, lookupErr := s.customerRepo.GetByUserID(userID)
			if lookupErr == nil && current != nil {
				return current, nil
			}
			return nil, err
		}
		return customer, nil
	}
	return nil, ErrInvalidArgument
}

// GetCustomer 根据 ID 获取会员
func (s *CustomerService) GetCustomer(id uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// GetCustomerByUserID 根据用户 ID 获取会员
func (s *CustomerService) GetCustomerByUserID(userID uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// GetCustomerByMemberNo 根据会员号获取会员（收银台扫码/手输入口）
func (s *CustomerService) GetCustomerByMemberNo(memberNo string) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByMemberNo(strings.ToUpper(strings.TrimSpace(memberNo)))
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// ListCustomers 分页查询会员列表
func (s *CustomerService) ListCustomers(filter repository.CustomerListFilter) ([]models.Customer, int64, error) {
	return s.customerRepo.List(filter)
}

func generateMemberNo(now time.Time) string {
	return strings.ToUpper(fmt.Sprintf("%s%s%s", memberNoPrefix, now.Format("060102"), randomHex(4)))
}
