package service

import (
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/repository"

	"gorm.io/gorm"
)

const (
	voucherCodePrefix      = "LV"
	voucherCodeMaxAttempts = 5
	voucherQRPayloadFormat = "loyalty://voucher/%s"
)

// VoucherService 兑换券服务
type VoucherService struct {
	voucherRepo    repository.VoucherRepository
	redemptionRepo repository.RedemptionRepository
	productRepo    repository.ProductRepository
	ledger         *LedgerService
	settingSvc     *SettingService
	queueClient    *queue.Client
}

// NewVoucherService 创建兑换券服务
func NewVoucherService(
	voucherRepo repository.VoucherRepository,
	redemptionRepo repository.RedemptionRepository,
	productRepo repository.ProductRepository,
	ledger *LedgerService,
	settingSvc *SettingService,
	queueClient *queue.Client,
) *VoucherService {
	return &VoucherService{
		voucherRepo:    voucherRepo,
		redemptionRepo: redemptionRepo,
		productRepo:    productRepo,
		ledger:         ledger,
		settingSvc:     settingSvc,
		queueClient:    queueClient,
	}
}

// ExchangeVoucherInput 印花换券输入
type ExchangeVoucherInput struct {
	CustomerID uint
	Tier       string
}

// RedeemVoucherInput 兑换券核销输入
type RedeemVoucherInput struct {
	Code       string
	CashierID  uint
	LocationID uint
	ProductID  uint
}

// ExchangeStampsForVoucher 用印花兑换一张券
// 扣印花与建券在同一事务内完成；券过期后印花不退还。
func (s *VoucherService) ExchangeStampsForVoucher(input ExchangeVoucherInput) (*models.Voucher, error) {
	tier := strings.ToUpper(strings.TrimSpace(input.Tier))
	if tier != constants.VoucherTierSmall && tier != constants.VoucherTierLarge {
		return nil, ErrVoucherInvalidTier
	}

	// 档位成本与有效期每次调用时读取，运营改配置即刻生效
	cost, err := s.settingSvc.GetStampsForVoucherTier(tier)
	if err != nil {
		return nil, err
	}
	expiryDays, err := s.settingSvc.GetVoucherExpiryDays()
	if err != nil {
		return nil, err
	}

	var voucher *models.Voucher
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.ledger.ConsumeStampsInTx(tx, ConsumeStampsInput{
			CustomerID: input.CustomerID,
			Count:      cost,
		}); err != nil {
			return err
		}

		now := time.Now()
		expiresAt := now.Add(time.Duration(expiryDays) * 24 * time.Hour)
		repo := s.voucherRepo.WithTx(tx)

		// 券码撞唯一索引时换码重试
		for attempt := 0; attempt < voucherCodeMaxAttempts; attempt++ {
			code := generateVoucherCode(now)
			existing, err := repo.GetByCode(code)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			candidate := &models.Voucher{
				CustomerID: input.CustomerID,
				Code:       code,
				Tier:       tier,
				StampsUsed: cost,
				Status:     constants.VoucherStatusActive,
				QRCodeData: fmt.Sprintf(voucherQRPayloadFormat, code),
				ExpiresAt:  expiresAt,
			}
			if err := repo.Create(candidate); err != nil {
				return err
			}
			voucher = candidate
			return nil
		}
		return ErrVoucherCodeConflict
	})
	if err != nil {
		return nil, err
	}

	s.scheduleExpiry(voucher)
	return voucher, nil
}

// RedeemVoucher 核销兑换券
// 状态检查与时间检查都在锁内进行，条件更新保证同一张券只被核销一次。
func (s *VoucherService) RedeemVoucher(input RedeemVoucherInput) (*models.Voucher, *models.Redemption, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" || input.CashierID == 0 || input.LocationID == 0 || input.ProductID == 0 {
		return nil, nil, ErrInvalidArgument
	}

	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, ErrProductNotFound
	}
	if !product.IsActive {
		return nil, nil, ErrProductInactive
	}

	var (
		resultVoucher    *models.Voucher
		resultRedemption *models.Redemption
		lapsedVoucher    *models.Voucher
	)
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.voucherRepo.WithTx(tx)
		voucher, err := repo.GetByCodeForUpdate(code)
		if err != nil {
			return err
		}
		if voucher == nil {
			return ErrVoucherNotFound
		}
		switch voucher.Status {
		case constants.VoucherStatusUsed:
			return ErrVoucherAlreadyUsed
		case constants.VoucherStatusExpired:
			return ErrVoucherExpired
		case constants.VoucherStatusActive:
		default:
			return ErrVoucherNotFound
		}

		// 核销必须查当前时间，不信任可能滞后的状态列
		now := time.Now()
		if !voucher.ExpiresAt.After(now) {
			// 状态修正不能写在这里：事务随错误回滚会把它一并撤销
			lapsedVoucher = voucher
			return ErrVoucherExpired
		}
		if product.VoucherTier != "" && product.VoucherTier != voucher.Tier {
			return ErrProductNotFound
		}

		affected, err := repo.MarkUsed(voucher.ID, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrVoucherAlreadyUsed
		}

		redemption := &models.Redemption{
			CustomerID: voucher.CustomerID,
			VoucherID:  voucher.ID,
			ProductID:  input.ProductID,
			CashierID:  input.CashierID,
			LocationID: input.LocationID,
			RedeemedAt: now,
		}
		if err := s.redemptionRepo.WithTx(tx).Create(redemption); err != nil {
			// 唯一索引冲突说明并发核销抢先落了记录，其余错误原样上抛
			if isDuplicateKeyError(err) {
				return ErrVoucherAlreadyUsed
			}
			return err
		}

		voucher.Status = constants.VoucherStatusUsed
		voucher.UsedAt = &now
		resultVoucher = voucher
		resultRedemption = redemption
		return nil
	})
	if err != nil {
		if lapsedVoucher != nil {
			s.lazyExpire(lapsedVoucher)
		}
		return nil, nil, err
	}
	return resultVoucher, resultRedemption, nil
}

// GetVoucherByCode 查询兑换券，读取时惰性判定过期
func (s *VoucherService) GetVoucherByCode(code string) (*models.Voucher, error) {
	voucher, err := s.voucherRepo.GetByCode(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	s.lazyExpire(voucher)
	return voucher, nil
}

// ListVouchers 查询兑换券列表，读取时惰性判定过期
func (s *VoucherService) ListVouchers(filter repository.VoucherListFilter) ([]models.Voucher, int64, error) {
	vouchers, total, err := s.voucherRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	for i := range vouchers {
		s.lazyExpire(&vouchers[i])
	}
	return vouchers, total, nil
}

// ListActiveVouchers 查询会员当前可用的兑换券
func (s *VoucherService) ListActiveVouchers(customerID uint) ([]models.Voucher, error) {
	vouchers, _, err := s.ListVouchers(repository.VoucherListFilter{
		CustomerID: customerID,
		Status:     constants.VoucherStatusActive,
	})
	if err != nil {
		return nil, err
	}
	active := make([]models.Voucher, 0, len(vouchers))
	for _, v := range vouchers {
		if v.Status == constants.VoucherStatusActive {
			active = append(active, v)
		}
	}
	return active, nil
}

// ExpireVoucher 把指定券置为过期（延迟任务回调）
func (s *VoucherService) ExpireVoucher(voucherID uint) error {
	affected, err := s.voucherRepo.MarkExpired(voucherID, time.Now())
	if err != nil {
		return err
	}
	if affected > 0 {
		logger.Infow("voucher_expired", "voucher_id", voucherID)
	}
	return nil
}

// ExpireOverdueVouchers 批量过期清扫（兜底，防止延迟任务丢失）
func (s *VoucherService) ExpireOverdueVouchers() (int64, error) {
	return s.voucherRepo.ExpireAllOverdue(time.Now())
}

// ListRedemptions 查询核销记录
func (s *VoucherService) ListRedemptions(filter repository.RedemptionListFilter) ([]models.Redemption, int64, error) {
	return s.redemptionRepo.List(filter)
}

// lazyExpire 读取路径上的惰性过期：状态列滞后时就地修正
func (s *VoucherService) lazyExpire(voucher *models.Voucher) {
	if voucher == nil || voucher.Status != constants.VoucherStatusActive {
		return
	}
	now := time.Now()
	if voucher.ExpiresAt.After(now) {
		return
	}
	if _, err := s.voucherRepo.MarkExpired(voucher.ID, now); err != nil {
		logger.Warnw("voucher_lazy_expire_failed", "voucher_id", voucher.ID, "error", err)
		return
	}
	voucher.Status = constants.VoucherStatusExpired
}

// scheduleExpiry 为新券排一个到期延迟任务
func (s *VoucherService) scheduleExpiry(voucher *models.Voucher) {
	if s.queueClient == nil || voucher == nil {
		return
	}
	delay := time.Until(voucher.ExpiresAt)
	if delay < 0 {
		delay = 0
	}
	if err := s.queueClient.EnqueueVoucherExpire(voucher.ID, delay); err != nil {
		// 入队失败不影响兑换结果，清扫任务会兜底
		logger.Warnw("voucher_expire_enqueue_failed", "voucher_id", voucher.ID, "error", err)
	}
}

func generateVoucherCode(now time.Time) string {
	return strings.ToUpper(fmt.Sprintf("%s%s%s", voucherCodePrefix, now.Format("060102150405"), randomHex(4)))
}

func randomHex(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		fallback := make([]byte, n)
		for i := range fallback {
			fallback[i] = byte('A' + (i % 26))
		}
		return hex.EncodeToString(fallback)
	}
	return hex.EncodeToString(buf)
}

// IsExpectedRedeemError 判定是否为面向用户的核销业务错误
func IsExpectedRedeemError(err error) bool {
	return errors.Is(err, ErrVoucherNotFound) ||
		errors.Is(err, ErrVoucherAlreadyUsed) ||
		errors.Is(err, ErrVoucherExpired) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrProductInactive)
}
