package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jarvisbot/jarvis-gateway/internal/client"
	"github.com/jarvisbot/jarvis-gateway/internal/config"
	"github.com/jarvisbot/jarvis-gateway/internal/handler"
	"github.com/jarvisbot/jarvis-gateway/internal/middleware"
	"github.com/jarvisbot/jarvis-gateway/internal/prompt"
	"github.com/jarvisbot/jarvis-gateway/internal/service"
	"github.com/jarvisbot/jarvis-gateway/internal/store"
	"github.com/jarvisbot/jarvis-gateway/pkg/database"
	"github.com/jarvisbot/jarvis-gateway/pkg/logger"
	"github.com/jarvisbot/jarvis-gateway/pkg/redis"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version 构建时通过 -ldflags "-X main.version=..." 覆盖
var version = ""

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "jarvis-gateway",
		Short:         "Jarvis 聊天网关",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "YAML 配置文件路径（可选）")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "打印版本号",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildVersion(config.Default().Server.Version))
		},
	})

	return root
}

func buildVersion(fallback string) string {
	if version != "" {
		return version
	}
	return fallback
}

func run(ctx context.Context, configPath string) error {
	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	// 初始化日志
	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Printf("初始化日志失败: %v", err)
		return err
	}
	defer zapLogger.Sync()

	recorder, closeRecorder, err := newRecorder(cfg, zapLogger)
	if err != nil {
		return err
	}
	defer closeRecorder()

	// 初始化服务
	upstream := client.NewUpstreamClient(
		cfg.Upstream.BaseURL,
		cfg.Upstream.ChatPath,
		cfg.Upstream.Timeout(),
		zapLogger.Named("upstream"),
	)
	zapLogger.Info("jarvis-gateway 服务启动中...",
		zap.String("upstream", upstream.URL()),
		zap.Bool("gatewayAuth", cfg.Gateway.APIKey != ""),
		zap.Bool("upstreamKeyOverride", cfg.Upstream.APIKey != ""))

	opts := []service.Option{}
	if recorder != nil {
		opts = append(opts, service.WithRecorder(recorder))
	}
	gatewayService := service.NewGatewayService(
		service.NewKeyResolver(cfg.Gateway.APIKey, cfg.Upstream.APIKey),
		prompt.NewComposer(cfg.Prompt),
		upstream,
		zapLogger,
		opts...,
	)
	// 先于 closeRecorder 执行
	defer gatewayService.Wait()

	// 初始化处理器
	info := handler.ServiceInfo{Name: cfg.Server.Name, Version: buildVersion(cfg.Server.Version)}
	gatewayHandler := handler.NewGatewayHandler(gatewayService, info, zapLogger)
	wsHandler := handler.NewWebSocketHandler(gatewayService, cfg.Gateway.AllowOrigins, zapLogger)

	// 初始化路由
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(zapLogger), middleware.CORS(cfg.Gateway.AllowOrigins))
	gatewayHandler.Register(r)
	r.GET("/ws", wsHandler.HandleWebSocket)

	// 启动服务
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("jarvis-gateway 服务启动成功", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			zapLogger.Error("服务启动失败", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zapLogger.Info("收到退出信号，正在关闭...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Upstream.Timeout()+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("关闭服务失败", zap.Error(err))
		return err
	}
	zapLogger.Info("服务已关闭")
	return nil
}

// newRecorder 按配置组装问答记录器，都未启用时返回 nil
func newRecorder(cfg *config.Config, zapLogger *zap.Logger) (service.ExchangeRecorder, func(), error) {
	var (
		recorders store.Multi
		closers   []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.RedisEnabled() {
		redisClient, err := redis.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		recorders = append(recorders, store.NewRedisHistory(redisClient, cfg.Database.ConversationID, cfg.Redis.HistoryLimit))
		zapLogger.Info("已启用 Redis 对话历史", zap.String("host", cfg.Redis.Host))
	}

	if cfg.DatabaseEnabled() {
		db, err := database.NewGormDB(cfg.Database.DSN, zapLogger)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}

		memoryLog := store.NewMemoryLogStore(db, cfg.Database.UserID, cfg.Database.ConversationID)
		if cfg.Database.AutoMigrate {
			if err := memoryLog.Migrate(); err != nil {
				closeAll()
				return nil, func() {}, fmt.Errorf("迁移 memory_log 失败: %w", err)
			}
		}
		recorders = append(recorders, memoryLog)
		zapLogger.Info("已启用 memory_log 落库")
	}

	if len(recorders) == 0 {
		return nil, closeAll, nil
	}
	return recorders, closeAll, nil
}
