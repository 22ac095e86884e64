package main

import (
	"fmt"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加门店
	locations := []models.Location{
		{Name: "旗舰店", Code: "HQ01", Address: "市中心步行街 1 号", IsActive: true},
		{Name: "机场店", Code: "AP01", Address: "国际机场 T2 航站楼", IsActive: true},
		{Name: "老城店（装修中）", Code: "OT01", Address: "老城区文化路 88 号", IsActive: false},
	}
	for _, loc := range locations {
		var existing models.Location
		if err := models.DB.Where("code = ?", loc.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&loc).Error; err != nil {
				stdLog.Printf("Failed to create location %s: %v", loc.Code, err)
			} else {
				stdLog.Printf("Created location: %s", loc.Code)
			}
		} else {
			stdLog.Printf("Location already exists: %s", loc.Code)
		}
	}

	// 添加可兑换商品
	products := []models.Product{
		{Name: "经典美式咖啡", Description: "中杯热美式，小额券可兑", VoucherTier: constants.VoucherTierSmall, IsActive: true},
		{Name: "手工曲奇礼盒", Description: "六枚装曲奇，小额券可兑", VoucherTier: constants.VoucherTierSmall, IsActive: true},
		{Name: "招牌蛋糕", Description: "六寸招牌奶油蛋糕，大额券可兑", VoucherTier: constants.VoucherTierLarge, IsActive: true},
		{Name: "季节限定礼篮", Description: "大额券可兑，售完即止", VoucherTier: constants.VoucherTierLarge, IsActive: false},
	}
	for _, prod := range products {
		var existing models.Product
		if err := models.DB.Where("name = ?", prod.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&prod).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", prod.Name, err)
			} else {
				stdLog.Printf("Created product: %s", prod.Name)
			}
		} else {
			existing.Description = prod.Description
			existing.VoucherTier = prod.VoucherTier
			existing.IsActive = prod.IsActive
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update product %s: %v", prod.Name, err)
			} else {
				stdLog.Printf("Updated product: %s", prod.Name)
			}
		}
	}

	// 添加自动赠礼规则
	rules := []models.AutoGiftRule{
		{
			Name:         "生日月赠印花",
			TriggerType:  constants.TriggerTypeBirthday,
			TriggerValue: models.JSON{},
			RewardType:   constants.RewardTypeStamps,
			RewardStamps: constants.DefaultBirthdayRewardStamps,
			Priority:     100,
			IsActive:     true,
		},
		{
			Name:         "完善生日资料奖励",
			TriggerType:  constants.TriggerTypeProfileComplete,
			TriggerValue: models.JSON{},
			RewardType:   constants.RewardTypeStamps,
			RewardStamps: 1,
			Priority:     90,
			IsActive:     true,
		},
		{
			Name:              "满十笔消费赠小额券",
			TriggerType:       constants.TriggerTypeTransactionCount,
			TriggerValue:      models.JSON{"count": 10},
			RewardType:        constants.RewardTypeVoucher,
			RewardVoucherTier: constants.VoucherTierSmall,
			Priority:          80,
			IsActive:          true,
		},
		{
			Name:         "注册欢迎印花（未启用）",
			TriggerType:  constants.TriggerTypeRegistration,
			TriggerValue: models.JSON{},
			RewardType:   constants.RewardTypeStamps,
			RewardStamps: 1,
			Priority:     10,
			IsActive:     false,
		},
	}
	for _, rule := range rules {
		var existing models.AutoGiftRule
		if err := models.DB.Where("name = ?", rule.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&rule).Error; err != nil {
				stdLog.Printf("Failed to create rule %s: %v", rule.Name, err)
			} else {
				stdLog.Printf("Created rule: %s", rule.Name)
			}
		} else {
			stdLog.Printf("Rule already exists: %s", rule.Name)
		}
	}

	// 写入积分配置
	configData := map[string]interface{}{
		constants.SettingFieldMinTransactionAmount:  constants.DefaultMinTransactionAmount,
		constants.SettingFieldStampsForSmallVoucher: constants.DefaultStampsForSmallVoucher,
		constants.SettingFieldStampsForLargeVoucher: constants.DefaultStampsForLargeVoucher,
		constants.SettingFieldVoucherExpiryDays:     constants.DefaultVoucherExpiryDays,
		constants.SettingFieldBirthdayRewardStamps:  constants.DefaultBirthdayRewardStamps,
	}

	var setting models.Setting
	if err := models.DB.Where("key = ?", constants.SettingKeyLoyaltyConfig).First(&setting).Error; err != nil {
		setting = models.Setting{
			Key:       constants.SettingKeyLoyaltyConfig,
			ValueJSON: models.JSON(configData),
		}
		if err := models.DB.Create(&setting).Error; err != nil {
			stdLog.Printf("Failed to create setting: %v", err)
		} else {
			stdLog.Println("Created loyalty config")
		}
	} else {
		setting.ValueJSON = models.JSON(configData)
		if err := models.DB.Save(&setting).Error; err != nil {
			stdLog.Printf("Failed to update setting: %v", err)
		} else {
			stdLog.Println("Updated loyalty config")
		}
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Locations")
	fmt.Println("- 4 Products")
	fmt.Println("- 4 Auto gift rules")
	fmt.Println("- Loyalty configuration")
}
