package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/shopspring/decimal"
)

// SettingService 设置业务服务
// 配置每次调用都从存储读取，不做进程内缓存，运营改完即刻生效。
type SettingService struct {
	repo repository.SettingRepository
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// GetConfig 获取忠诚度配置（合并默认值）
func (s *SettingService) GetConfig() (map[string]interface{}, error) {
	data := map[string]interface{}{
		constants.SettingFieldMinTransactionAmount:  constants.DefaultMinTransactionAmount,
		constants.SettingFieldStampsForSmallVoucher: constants.DefaultStampsForSmallVoucher,
		constants.SettingFieldStampsForLargeVoucher: constants.DefaultStampsForLargeVoucher,
		constants.SettingFieldVoucherExpiryDays:     constants.DefaultVoucherExpiryDays,
		constants.SettingFieldBirthdayRewardStamps:  constants.DefaultBirthdayRewardStamps,
	}

	setting, err := s.repo.GetByKey(constants.SettingKeyLoyaltyConfig)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return data, nil
	}

	for k, v := range setting.ValueJSON {
		data[k] = v
	}
	return data, nil
}

// GetByKey 获取设置
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	return setting.ValueJSON, nil
}

// Update 设置值
func (s *SettingService) Update(key string, value map[string]interface{}) (models.JSON, error) {
	setting, err := s.repo.Upsert(key, models.JSON(value))
	if err != nil {
		return nil, err
	}
	return setting.ValueJSON, nil
}

// GetMinTransactionAmount 获取交易计入印花的最低金额
func (s *SettingService) GetMinTransactionAmount() (decimal.Decimal, error) {
	fallback, _ := decimal.NewFromString(constants.DefaultMinTransactionAmount)
	if s == nil {
		return fallback, nil
	}
	raw, ok, err := s.loyaltyField(constants.SettingFieldMinTransactionAmount)
	if err != nil || !ok {
		return fallback, err
	}
	amount, err := parseSettingDecimal(raw)
	if err != nil {
		return fallback, err
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return fallback, nil
	}
	return amount, nil
}

// GetStampsForVoucherTier 获取指定档位兑换券的印花成本
func (s *SettingService) GetStampsForVoucherTier(tier string) (int, error) {
	var field string
	var fallback int
	switch strings.ToUpper(strings.TrimSpace(tier)) {
	case constants.VoucherTierSmall:
		field = constants.SettingFieldStampsForSmallVoucher
		fallback = constants.DefaultStampsForSmallVoucher
	case constants.VoucherTierLarge:
		field = constants.SettingFieldStampsForLargeVoucher
		fallback = constants.DefaultStampsForLargeVoucher
	default:
		return 0, ErrVoucherInvalidTier
	}
	if s == nil {
		return fallback, nil
	}
	raw, ok, err := s.loyaltyField(field)
	if err != nil || !ok {
		return fallback, err
	}
	cost, err := parseSettingInt(raw)
	if err != nil {
		return fallback, err
	}
	if cost <= 0 {
		return fallback, nil
	}
	return cost, nil
}

// GetVoucherExpiryDays 获取兑换券有效天数
func (s *SettingService) GetVoucherExpiryDays() (int, error) {
	if s == nil {
		return constants.DefaultVoucherExpiryDays, nil
	}
	raw, ok, err := s.loyaltyField(constants.SettingFieldVoucherExpiryDays)
	if err != nil || !ok {
		return constants.DefaultVoucherExpiryDays, err
	}
	days, err := parseSettingInt(raw)
	if err != nil {
		return constants.DefaultVoucherExpiryDays, err
	}
	if days <= 0 {
		return constants.DefaultVoucherExpiryDays, nil
	}
	return days, nil
}

// GetBirthdayRewardStamps 获取生日奖励印花数
func (s *SettingService) GetBirthdayRewardStamps() (int, error) {
	if s == nil {
		return constants.DefaultBirthdayRewardStamps, nil
	}
	raw, ok, err := s.loyaltyField(constants.SettingFieldBirthdayRewardStamps)
	if err != nil || !ok {
		return constants.DefaultBirthdayRewardStamps, err
	}
	count, err := parseSettingInt(raw)
	if err != nil {
		return constants.DefaultBirthdayRewardStamps, err
	}
	if count <= 0 {
		return constants.DefaultBirthdayRewardStamps, nil
	}
	return count, nil
}

func (s *SettingService) loyaltyField(field string) (interface{}, bool, error) {
	value, err := s.GetByKey(constants.SettingKeyLoyaltyConfig)
	if err != nil {
		return nil, false, err
	}
	if value == nil {
		return nil, false, nil
	}
	raw, ok := value[field]
	if !ok {
		return nil, false, nil
	}
	return raw, true, nil
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("invalid json number")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}

func parseSettingDecimal(value interface{}) (decimal.Decimal, error) {
	switch v := value.(type) {
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return decimal.Zero, fmt.Errorf("empty string")
		}
		return decimal.NewFromString(trimmed)
	default:
		return decimal.Zero, fmt.Errorf("unsupported value type")
	}
}
