package provider

import (
	"github.com/loyalty-next/internal/authz"
	"github.com/loyalty-next/internal/cache"
	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	EmployeeRepo    repository.EmployeeRepository
	UserRepo        repository.UserRepository
	CustomerRepo    repository.CustomerRepository
	StampRepo       repository.StampRepository
	TransactionRepo repository.TransactionRepository
	VoucherRepo     repository.VoucherRepository
	RedemptionRepo  repository.RedemptionRepository
	AutoGiftRepo    repository.AutoGiftRepository
	AdjustmentRepo  repository.BalanceAdjustmentRepository
	LocationRepo    repository.LocationRepository
	ProductRepo     repository.ProductRepository
	SettingRepo     repository.SettingRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	UserAuthService    *service.UserAuthService
	CustomerService    *service.CustomerService
	SettingService     *service.SettingService
	LedgerService      *service.LedgerService
	VoucherService     *service.VoucherService
	TransactionService *service.TransactionService
	AutoGiftService    *service.AutoGiftService
	LocationService    *service.LocationService
	ProductService     *service.ProductService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.EmployeeRepo = repository.NewEmployeeRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.CustomerRepo = repository.NewCustomerRepository(db)
	c.StampRepo = repository.NewStampRepository(db)
	c.TransactionRepo = repository.NewTransactionRepository(db)
	c.VoucherRepo = repository.NewVoucherRepository(db)
	c.RedemptionRepo = repository.NewRedemptionRepository(db)
	c.AutoGiftRepo = repository.NewAutoGiftRepository(db)
	c.AdjustmentRepo = repository.NewBalanceAdjustmentRepository(db)
	c.LocationRepo = repository.NewLocationRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.AuthService = service.NewAuthService(c.Config, c.EmployeeRepo)
	c.CustomerService = service.NewCustomerService(c.CustomerRepo)
	c.LedgerService = service.NewLedgerService(c.CustomerRepo, c.StampRepo, c.AdjustmentRepo)
	c.VoucherService = service.NewVoucherService(c.VoucherRepo, c.RedemptionRepo, c.ProductRepo, c.LedgerService, c.SettingService, c.QueueClient)
	c.AutoGiftService = service.NewAutoGiftService(c.AutoGiftRepo, c.CustomerRepo, c.VoucherRepo, c.LedgerService, c.SettingService)
	c.TransactionService = service.NewTransactionService(c.TransactionRepo, c.CustomerRepo, c.LocationRepo, c.LedgerService, c.SettingService, c.AutoGiftService)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.CustomerService, c.AutoGiftService)
	c.LocationService = service.NewLocationService(c.LocationRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
}
