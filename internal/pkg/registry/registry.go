package registry

import (
	"sort"
	orderRepo "storefront/internal/domain/order/repository"
	promoRepo "storefront/internal/domain/promo/repository"
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/idempotency"
	"storefront/internal/pkg/worker"
	"storefront/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ModuleContext 模块初始化所需的上下文
// 进程级客户端与存储在 cmd/server 中创建一次后注入
type ModuleContext struct {
	DB      *gorm.DB      // memory 模式下为 nil
	Redis   *redis.Client // 未配置时为 nil
	Router  *gin.Engine
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.MetricsCollector

	Orders     orderRepo.OrderRepository
	OrderStats orderRepo.OrderStatsRepository
	Promos     promoRepo.PromoRepository
	Markers    idempotency.Store
	Events     *worker.WorkerPool
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、路由注册等）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	Priority() int
}

// moduleRegistry 全局模块注册表
var moduleRegistry = make(map[string]Module)

// Register 注册模块
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// GetModules 获取所有已注册的模块
func GetModules() map[string]Module {
	return moduleRegistry
}

// InitModules 按优先级初始化所有模块，优先级相同按名称排序
func InitModules(ctx *ModuleContext) error {
	modules := make([]Module, 0, len(moduleRegistry))
	for _, m := range moduleRegistry {
		modules = append(modules, m)
	}

	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Priority() != modules[j].Priority() {
			return modules[i].Priority() < modules[j].Priority()
		}
		return modules[i].Name() < modules[j].Name()
	})

	for _, module := range modules {
		if err := module.Init(ctx); err != nil {
			return err
		}
		if ctx.Logger != nil {
			ctx.Logger.Info("module initialized", zap.String("module", module.Name()))
		}
	}

	return nil
}
