package service

import (
	"strings"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"gorm.io/gorm"
)

// LedgerService 印花账本服务
// 会员余额的唯一事实来源：逐枚印花行 + Customer 上的两个累计计数器。
type LedgerService struct {
	customerRepo repository.CustomerRepository
	stampRepo    repository.StampRepository
	adjustRepo   repository.BalanceAdjustmentRepository
}

// NewLedgerService 创建印花账本服务
func NewLedgerService(customerRepo repository.CustomerRepository, stampRepo repository.StampRepository, adjustRepo repository.BalanceAdjustmentRepository) *LedgerService {
	return &LedgerService{
		customerRepo: customerRepo,
		stampRepo:    stampRepo,
		adjustRepo:   adjustRepo,
	}
}

// AwardStampsInput 印花发放输入
type AwardStampsInput struct {
	CustomerID    uint
	Count         int
	Reason        string
	TransactionID *uint
}

// ConsumeStampsInput 印花扣减输入
type ConsumeStampsInput struct {
	CustomerID uint
	Count      int
}

// AdjustBalanceInput 手工调整输入
type AdjustBalanceInput struct {
	CustomerID uint
	EmployeeID uint
	Delta      int
	Reason     string
}

// BalanceSummary 会员余额快照
type BalanceSummary struct {
	CustomerID        uint `json:"customer_id"`
	CurrentStamps     int  `json:"current_stamps"`
	TotalStampsEarned int  `json:"total_stamps_earned"`
	TotalStampsUsed   int  `json:"total_stamps_used"`
}

// AwardStamps 发放印花（独立事务）
func (s *LedgerService) AwardStamps(input AwardStampsInput) error {
	return models.DB.Transaction(func(tx *gorm.DB) error {
		return s.AwardStampsInTx(tx, input)
	})
}

// AwardStampsInTx 在既有事务内发放印花
// 逐枚写入印花行并同步累计计数器，两者必须同进同退。
func (s *LedgerService) AwardStampsInTx(tx *gorm.DB, input AwardStampsInput) error {
	if input.Count <= 0 {
		return ErrInvalidStampCount
	}
	if strings.TrimSpace(input.Reason) == "" {
		return ErrInvalidArgument
	}

	customerRepo := s.customerRepo.WithTx(tx)
	customer, err := customerRepo.GetByIDForUpdate(input.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return ErrCustomerNotFound
	}

	now := time.Now()
	stamps := make([]models.Stamp, 0, input.Count)
	for i := 0; i < input.Count; i++ {
		stamp := models.Stamp{
			CustomerID: customer.ID,
			Status:     constants.StampStatusActive,
			Reason:     input.Reason,
			EarnedAt:   now,
		}
		// 一笔交易只有一枚印花可挂交易号，唯一索引兜底
		if i == 0 {
			stamp.TransactionID = input.TransactionID
		}
		stamps = append(stamps, stamp)
	}
	if err := s.stampRepo.WithTx(tx).CreateBatch(stamps); err != nil {
		return err
	}

	affected, err := customerRepo.AddStamps(customer.ID, input.Count)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// ConsumeStamps 扣减印花（独立事务）
func (s *LedgerService) ConsumeStamps(input ConsumeStampsInput) error {
	return models.DB.Transaction(func(tx *gorm.DB) error {
		return s.ConsumeStampsInTx(tx, input)
	})
}

// ConsumeStampsInTx 在既有事务内扣减印花
// 先锁行再校验余额，条件更新作为并发下的第二道防线。
func (s *LedgerService) ConsumeStampsInTx(tx *gorm.DB, input ConsumeStampsInput) error {
	if input.Count <= 0 {
		return ErrInvalidStampCount
	}

	customerRepo := s.customerRepo.WithTx(tx)
	customer, err := customerRepo.GetByIDForUpdate(input.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return ErrCustomerNotFound
	}
	if customer.CurrentStamps < input.Count {
		return ErrInsufficientBalance
	}

	affected, err := customerRepo.ConsumeStamps(customer.ID, input.Count)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientBalance
	}

	// FIFO 标记最早的活跃印花为已用；数字余额才是权威，这里只是审计便利
	now := time.Now()
	if _, err := s.stampRepo.WithTx(tx).MarkUsedOldest(customer.ID, input.Count, now); err != nil {
		return err
	}
	return nil
}

// AdjustBalance 管理员手工调整余额
// 正数等同发放、负数等同扣减，必须附带原因全文并落一条审计记录。
func (s *LedgerService) AdjustBalance(input AdjustBalanceInput) error {
	if input.Delta == 0 {
		return ErrInvalidStampCount
	}
	if strings.TrimSpace(input.Reason) == "" {
		return ErrAdjustReasonRequired
	}

	return models.DB.Transaction(func(tx *gorm.DB) error {
		if input.Delta > 0 {
			if err := s.AwardStampsInTx(tx, AwardStampsInput{
				CustomerID: input.CustomerID,
				Count:      input.Delta,
				Reason:     constants.StampReasonManualAdjust,
			}); err != nil {
				return err
			}
		} else {
			if err := s.ConsumeStampsInTx(tx, ConsumeStampsInput{
				CustomerID: input.CustomerID,
				Count:      -input.Delta,
			}); err != nil {
				return err
			}
		}

		return s.adjustRepo.WithTx(tx).Create(&models.BalanceAdjustment{
			CustomerID: input.CustomerID,
			EmployeeID: input.EmployeeID,
			Delta:      input.Delta,
			Reason:     strings.TrimSpace(input.Reason),
		})
	})
}

// GetBalance 获取会员余额快照
func (s *LedgerService) GetBalance(customerID uint) (*BalanceSummary, error) {
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return &BalanceSummary{
		CustomerID:        customer.ID,
		CurrentStamps:     customer.CurrentStamps,
		TotalStampsEarned: customer.TotalStampsEarned,
		TotalStampsUsed:   customer.TotalStampsUsed,
	}, nil
}

// ListStampHistory 查询印花流水
func (s *LedgerService) ListStampHistory(filter repository.StampListFilter) ([]models.Stamp, int64, error) {
	return s.stampRepo.List(filter)
}

// ListAdjustments 查询手工调整记录
func (s *LedgerService) ListAdjustments(filter repository.BalanceAdjustmentListFilter) ([]models.BalanceAdjustment, int64, error) {
	return s.adjustRepo.List(filter)
}
