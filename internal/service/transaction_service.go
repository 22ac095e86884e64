package service

import (
	"strings"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 每笔合格交易固定奖励一枚印花，金额超出门槛不加成
const stampsPerTransaction = 1

// TransactionService 交易记录服务
type TransactionService struct {
	txnRepo      repository.TransactionRepository
	customerRepo repository.CustomerRepository
	locationRepo repository.LocationRepository
	ledger       *LedgerService
	settingSvc   *SettingService
	autoGift     *AutoGiftService
}

// NewTransactionService 创建交易记录服务
func NewTransactionService(
	txnRepo repository.TransactionRepository,
	customerRepo repository.CustomerRepository,
	locationRepo repository.LocationRepository,
	ledger *LedgerService,
	settingSvc *SettingService,
	autoGift *AutoGiftService,
) *TransactionService {
	return &TransactionService{
		txnRepo:      txnRepo,
		customerRepo: customerRepo,
		locationRepo: locationRepo,
		ledger:       ledger,
		settingSvc:   settingSvc,
		autoGift:     autoGift,
	}
}

// RecordTransactionInput 交易记录输入
type RecordTransactionInput struct {
	CustomerID  uint
	CashierID   *uint
	LocationID  uint
	TotalAmount models.Money
	EntryMethod string
}

// RecordTransaction 记录一笔购买并发放印花
// 交易行、印花行、余额更新同一事务；低于门槛的交易不产生任何状态变化。
func (s *TransactionService) RecordTransaction(input RecordTransactionInput) (*models.Transaction, error) {
	entryMethod := strings.ToUpper(strings.TrimSpace(input.EntryMethod))
	if entryMethod != constants.TransactionEntryQRScan && entryMethod != constants.TransactionEntryManualCode {
		return nil, ErrInvalidArgument
	}

	amount := input.TotalAmount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	minAmount, err := s.settingSvc.GetMinTransactionAmount()
	if err != nil {
		return nil, err
	}
	if amount.LessThan(minAmount) {
		return nil, ErrBelowMinimumAmount
	}

	location, err := s.locationRepo.GetByID(input.LocationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, ErrLocationNotFound
	}

	var txn *models.Transaction
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		customerRepo := s.customerRepo.WithTx(tx)
		customer, err := customerRepo.GetByIDForUpdate(input.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerNotFound
		}

		now := time.Now()
		record := &models.Transaction{
			CustomerID:      customer.ID,
			CashierID:       input.CashierID,
			LocationID:      location.ID,
			TotalAmount:     models.NewMoneyFromDecimal(amount),
			StampsEarned:    stampsPerTransaction,
			EntryMethod:     entryMethod,
			TransactionDate: now,
		}
		if err := s.txnRepo.WithTx(tx).Create(record); err != nil {
			return err
		}

		if err := s.ledger.AwardStampsInTx(tx, AwardStampsInput{
			CustomerID:    customer.ID,
			Count:         stampsPerTransaction,
			Reason:        constants.StampReasonTransaction,
			TransactionID: &record.ID,
		}); err != nil {
			return err
		}

		// 余额列已由 AwardStampsInTx 条件更新，这里只补最近交易时间
		if err := customerRepo.TouchLastTransaction(customer.ID, now); err != nil {
			return err
		}

		txn = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 里程碑触发在交易事务提交后评估，失败只记日志不影响交易结果
	s.evaluateMilestones(input.CustomerID)
	return txn, nil
}

// GetTransaction 获取交易详情
func (s *TransactionService) GetTransaction(id uint) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, ErrNotFound
	}
	return txn, nil
}

// ListTransactions 查询交易列表
func (s *TransactionService) ListTransactions(filter repository.TransactionListFilter) ([]models.Transaction, int64, error) {
	return s.txnRepo.List(filter)
}

func (s *TransactionService) evaluateMilestones(customerID uint) {
	if s.autoGift == nil {
		return
	}
	count, err := s.txnRepo.CountByCustomer(customerID)
	if err != nil {
		logger.Warnw("transaction_count_query_failed", "customer_id", customerID, "error", err)
		return
	}
	if err := s.autoGift.EvaluateTrigger(customerID, constants.TriggerTypeTransactionCount, TriggerContext{Count: count}); err != nil {
		logger.Warnw("auto_gift_evaluate_failed",
			"customer_id", customerID,
			"trigger_type", constants.TriggerTypeTransactionCount,
			"error", err,
		)
	}

	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil || customer == nil {
		return
	}
	if err := s.autoGift.EvaluateTrigger(customerID, constants.TriggerTypeStampMilestone, TriggerContext{Count: int64(customer.TotalStampsEarned)}); err != nil {
		logger.Warnw("auto_gift_evaluate_failed",
			"customer_id", customerID,
			"trigger_type", constants.TriggerTypeStampMilestone,
			"error", err,
		)
	}
}
