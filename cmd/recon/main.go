package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"salesrecon/internal/config"
	"salesrecon/internal/logger"
	"salesrecon/internal/server"
)

var (
	port    = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode = flag.Bool("dev", false, "开发模式")
	dataDir = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	noLog   = flag.Bool("no-run-log", false, "不记录运行日志")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  Recon - 销售 / 库存 / 退货对账服务")
	fmt.Println("==========================================")

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}
	if info.Path != "" {
		fmt.Printf("配置文件: %s\n", info.Path)
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}
	if *noLog {
		cfg.Data.RunLog = false
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.Data.RunLog {
		fmt.Printf("数据目录: %s\n", config.ResolveDataDir(cfg, exeDirOrDot()))
	}

	// 创建服务器
	srv, err := server.NewServer(cfg, zl)
	if err != nil {
		zl.Fatal("服务初始化失败", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	// 启动服务器
	go func() {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		fmt.Printf("接口地址: http://localhost:%d/api/status\n", cfg.Server.Port)
		if err := srv.Run(addr); err != nil {
			zl.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Warn("关闭服务失败", zap.Error(err))
	}
}

func exeDirOrDot() string {
	dir, err := config.GetExeDir()
	if err != nil {
		return "."
	}
	return dir
}
