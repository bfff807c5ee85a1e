// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package main

import (
	"context"
	"flag"
	"fmt"

	"stocklens-api/internal/cli"
	"stocklens-api/internal/config"
	"stocklens-api/internal/handler"
	"stocklens-api/internal/svc"
	"stocklens-api/internal/warmer"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"
)

var configFile = flag.String("f", "etc/stocklens.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)

	var opts []rest.RunOption
	if cfg.FrontendOrigin != "" {
		opts = append(opts, rest.WithCors(cfg.FrontendOrigin))
	}
	server := rest.MustNewServer(cfg.RestConf, opts...)
	defer server.Stop()

	cli.LogConfigSummary(cfg)

	ctx := svc.NewServiceContext(*cfg)
	defer ctx.Close()
	handler.SetupErrorHandler(*cfg)
	handler.RegisterHandlers(server, ctx)

	if cfg.Warmer.Enabled {
		w, err := warmer.New(context.Background(), cfg.Warmer, ctx.Resolver)
		if err != nil {
			logx.Must(err)
		}
		w.Start()
		defer w.Stop()
	}

	fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
	server.Start()
}
