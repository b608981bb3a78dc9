package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/user/filmsync/internal/config"
	"github.com/user/filmsync/internal/handler"
	"github.com/user/filmsync/internal/middleware"
	"github.com/user/filmsync/internal/repository"
	"github.com/user/filmsync/internal/search"
	"github.com/user/filmsync/internal/service"
	"github.com/user/filmsync/internal/state"
	"golang.org/x/sync/errgroup"
)

// filmWorkExtractor 让仓库满足编排器的抽取接口
type filmWorkExtractor struct {
	repo *repository.FilmWorkRepository
}

func (e filmWorkExtractor) OpenChanges(since time.Time) (service.Cursor, error) {
	return e.repo.OpenChanges(since)
}

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()

	// 初始化数据库
	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	// 初始化 Elasticsearch 并确保索引存在
	es, err := search.InitES(cfg.ESAddress)
	if err != nil {
		log.Fatalf("Elasticsearch 连接失败: %v", err)
	}
	if err := search.EnsureIndex(es, cfg.IndexName); err != nil {
		log.Fatalf("索引创建失败: %v", err)
	}

	// 初始化检查点
	st, err := state.NewState(state.NewJSONFileStorage(cfg.StatePath))
	if err != nil {
		log.Fatalf("加载检查点失败: %v", err)
	}

	// 组装同步管道
	repo := repository.NewFilmWorkRepository(db)
	loader := search.NewBulkLoader(es, cfg.IndexName)
	syncSvc := service.NewSyncService(filmWorkExtractor{repo: repo}, loader, st, cfg.PageSize)

	// 单次运行模式
	if cfg.SyncInterval <= 0 {
		stats, err := syncSvc.Run(context.Background())
		if err != nil {
			log.Fatalf("[Sync] 同步异常终止: %v", err)
		}
		log.Printf("[Sync] 成功加载 %d 篇文档", stats.Loaded)
		return
	}

	// 守护模式：按间隔循环同步，并提供状态接口
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.Logger())

	h := handler.NewHandler()
	handler.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("状态接口启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			stats, err := syncSvc.Run(ctx)
			h.Record(stats, err)
			if err != nil && !errors.Is(err, context.Canceled) {
				// 守护模式下单轮失败不退出，水位线保证下一轮正确续跑
				log.Printf("[Sync] 本轮同步失败: %v", err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			log.Println("收到退出信号，正在关闭...")
			cancel()
		case <-ctx.Done():
		}
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("异常退出: %v", err)
	}
	log.Println("已退出")
}
