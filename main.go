package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"revokeradar/internal/chain"
	"revokeradar/internal/config"
	"revokeradar/internal/handler"
	"revokeradar/internal/logic"
	"revokeradar/internal/svc"

	"github.com/joho/godotenv"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"
)

var (
	configFile = flag.String("f", "", "optional config file, environment variables take precedence")
	envFile    = flag.String("env", ".env", "dotenv file loaded into the environment if present")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logx.Errorf("failed to load %s: %v", *envFile, err)
		os.Exit(1)
	}

	c, err := config.Load(*configFile)
	if err != nil {
		logx.Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}
	logx.MustSetup(c.Log)
	logx.DisableStat()

	// 设置优雅退出
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := chain.Dial(ctx, c.Chain.RpcUrl, chain.NewLimiter(c.Chain.RateLimit))
	if err != nil {
		logx.Errorf("cannot reach %s: %v", c.Chain.Name, err)
		os.Exit(1)
	}
	defer client.Close()
	logx.Infof("connected to %s, chain id %s", c.Chain.Name, client.ChainID())

	svcCtx, err := svc.NewServiceContext(*c, client)
	if err != nil {
		logx.Errorf("failed to start: %v", err)
		os.Exit(1)
	}

	if svcCtx.Config.Radar.DryRun {
		logx.Info("dry run: revocations are built and logged, never signed or sent")
	} else {
		logx.Info("live mode: revocations are signed and broadcast")
	}
	logx.Infof("watching %s against %d spenders every %s",
		svcCtx.Wallet.Hex(), len(svcCtx.Spenders), c.Radar.Interval())

	if c.Port > 0 {
		server := rest.MustNewServer(c.RestConf)
		defer server.Stop()
		handler.RegisterHandlers(server, svcCtx)

		go server.Start()
		logx.Infof("status server at %s:%d", c.Host, c.Port)
	}

	logic.NewCycleDriver(ctx, svcCtx, nil).Run()
}
