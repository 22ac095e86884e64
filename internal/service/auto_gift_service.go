package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"gorm.io/gorm"
)

// AutoGiftService 自动赠礼规则评估服务
// 每条规则对每个会员至多发放一次，发放与历史写入同一事务。
type AutoGiftService struct {
	giftRepo     repository.AutoGiftRepository
	customerRepo repository.CustomerRepository
	voucherRepo  repository.VoucherRepository
	ledger       *LedgerService
	settingSvc   *SettingService
}

// NewAutoGiftService 创建自动赠礼服务
func NewAutoGiftService(
	giftRepo repository.AutoGiftRepository,
	customerRepo repository.CustomerRepository,
	voucherRepo repository.VoucherRepository,
	ledger *LedgerService,
	settingSvc *SettingService,
) *AutoGiftService {
	return &AutoGiftService{
		giftRepo:     giftRepo,
		customerRepo: customerRepo,
		voucherRepo:  voucherRepo,
		ledger:       ledger,
		settingSvc:   settingSvc,
	}
}

// TriggerContext 触发评估上下文
type TriggerContext struct {
	Count int64
}

// EvaluateTrigger 评估指定触发类型下的全部启用规则
// 已发放的 (rule, customer) 静默跳过，不算错误。
func (s *AutoGiftService) EvaluateTrigger(customerID uint, triggerType string, ctx TriggerContext) error {
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return ErrCustomerNotFound
	}

	rules, err := s.giftRepo.ListActiveRulesByTrigger(triggerType)
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if !s.ruleConditionMet(rule, ctx) {
			continue
		}
		if err := s.grantRule(customer, rule); err != nil {
			if err == ErrGiftAlreadyGranted {
				continue
			}
			return err
		}
	}
	return nil
}

// GrantBirthdayProfileReward 首次填写生日的奖励入口
// 固定奖励走 last_birthday_gift_year 列做幂等标记，
// 管理端配置的 BIRTHDAY 规则走通用评估，历史表各自保证只发一次。
func (s *AutoGiftService) GrantBirthdayProfileReward(customerID uint) error {
	if err := s.grantBirthdayColumnReward(customerID); err != nil {
		return err
	}
	return s.EvaluateTrigger(customerID, constants.TriggerTypeBirthday, TriggerContext{})
}

// grantBirthdayColumnReward 发放固定生日印花，条件更新保证同年只有一次能改到行
func (s *AutoGiftService) grantBirthdayColumnReward(customerID uint) error {
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return ErrCustomerNotFound
	}
	if customer.LastBirthdayGiftYear != nil {
		return nil
	}

	count, err := s.settingSvc.GetBirthdayRewardStamps()
	if err != nil {
		return err
	}

	year := time.Now().Year()
	return models.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.customerRepo.WithTx(tx).SetBirthdayGiftYear(customer.ID, year)
		if err != nil {
			return err
		}
		if affected == 0 {
			// 并发重复提交，另一方已发过
			return nil
		}
		return s.ledger.AwardStampsInTx(tx, AwardStampsInput{
			CustomerID: customer.ID,
			Count:      count,
			Reason:     constants.StampReasonBirthdayProfile,
		})
	})
}

// grantRule 在单个事务内发放规则奖励并写历史
func (s *AutoGiftService) grantRule(customer *models.Customer, rule models.AutoGiftRule) error {
	existing, err := s.giftRepo.GetHistory(rule.ID, customer.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrGiftAlreadyGranted
	}

	return models.DB.Transaction(func(tx *gorm.DB) error {
		giftRepo := s.giftRepo.WithTx(tx)

		// 事务内复查，双设备并发触发时只有一方能插入历史行
		current, err := giftRepo.GetHistory(rule.ID, customer.ID)
		if err != nil {
			return err
		}
		if current != nil {
			return ErrGiftAlreadyGranted
		}

		now := time.Now()
		rewardGiven, err := s.applyRewardInTx(tx, customer, rule, now)
		if err != nil {
			return err
		}

		if err := giftRepo.CreateHistory(&models.AutoGiftHistory{
			RuleID:      rule.ID,
			CustomerID:  customer.ID,
			RewardGiven: rewardGiven,
			GiftedAt:    now,
		}); err != nil {
			// 唯一索引冲突说明并发发放已落历史行，其余错误原样上抛
			if isDuplicateKeyError(err) {
				return ErrGiftAlreadyGranted
			}
			return err
		}

		logger.Infow("auto_gift_granted",
			"rule_id", rule.ID,
			"customer_id", customer.ID,
			"reward", rewardGiven,
		)
		return nil
	})
}

func (s *AutoGiftService) applyRewardInTx(tx *gorm.DB, customer *models.Customer, rule models.AutoGiftRule, now time.Time) (string, error) {
	switch rule.RewardType {
	case constants.RewardTypeStamps:
		if rule.RewardStamps <= 0 {
			return "", ErrInvalidStampCount
		}
		if err := s.ledger.AwardStampsInTx(tx, AwardStampsInput{
			CustomerID: customer.ID,
			Count:      rule.RewardStamps,
			Reason:     constants.StampReasonAutoGift,
		}); err != nil {
			return "", err
		}
		return fmt.Sprintf("stamps:%d", rule.RewardStamps), nil
	case constants.RewardTypeVoucher:
		tier := strings.ToUpper(strings.TrimSpace(rule.RewardVoucherTier))
		if tier != constants.VoucherTierSmall && tier != constants.VoucherTierLarge {
			return "", ErrVoucherInvalidTier
		}
		voucher, err := s.createRewardVoucherInTx(tx, customer.ID, tier, now)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("voucher:%s:%s", tier, voucher.Code), nil
	default:
		return "", ErrInvalidArgument
	}
}

// createRewardVoucherInTx 直发奖励券，不扣印花（stamps_used=0）
func (s *AutoGiftService) createRewardVoucherInTx(tx *gorm.DB, customerID uint, tier string, now time.Time) (*models.Voucher, error) {
	expiryDays, err := s.settingSvc.GetVoucherExpiryDays()
	if err != nil {
		return nil, err
	}
	repo := s.voucherRepo.WithTx(tx)
	for attempt := 0; attempt < voucherCodeMaxAttempts; attempt++ {
		code := generateVoucherCode(now)
		existing, err := repo.GetByCode(code)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}
		voucher := &models.Voucher{
			CustomerID: customerID,
			Code:       code,
			Tier:       tier,
			StampsUsed: 0,
			Status:     constants.VoucherStatusActive,
			QRCodeData: fmt.Sprintf(voucherQRPayloadFormat, code),
			ExpiresAt:  now.Add(time.Duration(expiryDays) * 24 * time.Hour),
		}
		if err := repo.Create(voucher); err != nil {
			return nil, err
		}
		return voucher, nil
	}
	return nil, ErrVoucherCodeConflict
}

// ListRules 查询规则列表
func (s *AutoGiftService) ListRules(filter repository.AutoGiftRuleListFilter) ([]models.AutoGiftRule, int64, error) {
	return s.giftRepo.ListRules(filter)
}

// GetRule 获取规则详情
func (s *AutoGiftService) GetRule(id uint) (*models.AutoGiftRule, error) {
	rule, err := s.giftRepo.GetRuleByID(id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

// CreateRule 创建规则
func (s *AutoGiftService) CreateRule(rule *models.AutoGiftRule) error {
	if strings.TrimSpace(rule.Name) == "" || strings.TrimSpace(rule.TriggerType) == "" {
		return ErrInvalidArgument
	}
	return s.giftRepo.CreateRule(rule)
}

// UpdateRule 更新规则
func (s *AutoGiftService) UpdateRule(rule *models.AutoGiftRule) error {
	if rule == nil || rule.ID == 0 {
		return ErrRuleNotFound
	}
	return s.giftRepo.UpdateRule(rule)
}

// DeleteRule 删除规则
func (s *AutoGiftService) DeleteRule(id uint) error {
	rule, err := s.giftRepo.GetRuleByID(id)
	if err != nil {
		return err
	}
	if rule == nil {
		return ErrRuleNotFound
	}
	return s.giftRepo.DeleteRule(id)
}

// ruleConditionMet 判定触发条件是否满足
// trigger_value 形如 {"count": 10}，缺省视为无条件触发。
func (s *AutoGiftService) ruleConditionMet(rule models.AutoGiftRule, ctx TriggerContext) bool {
	if len(rule.TriggerValue) == 0 {
		return true
	}
	raw, ok := rule.TriggerValue["count"]
	if !ok {
		return true
	}
	threshold, err := parseSettingInt(raw)
	if err != nil {
		logger.Warnw("auto_gift_rule_bad_trigger_value", "rule_id", rule.ID, "error", err)
		return false
	}
	return ctx.Count >= int64(threshold)
}
