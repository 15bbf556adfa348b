package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"jobgate-appointment-api/internal/cache"
	"jobgate-appointment-api/internal/config"
	"jobgate-appointment-api/internal/gateway"
	"jobgate-appointment-api/internal/handler"
	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/middleware"
	"jobgate-appointment-api/internal/notify"
	"jobgate-appointment-api/internal/reminder"
	"jobgate-appointment-api/internal/rpc"
	"jobgate-appointment-api/internal/store"
)

func main() {
	if err := run(); err != nil {
		appLog.Error("server stopped", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.App.LogLevel))
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	loc := cfg.Location()
	ctx := context.Background()

	// database
	pool, err := store.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	appLog.Info("connected to postgres")

	st := store.New(pool)
	if err := st.Migrate(ctx, cfg.Database.MigrationsPath); err != nil {
		return err
	}

	// redis is optional
	var c *cache.Cache
	if cfg.Redis.URL != "" {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		c = cache.New(client, 0)
		appLog.Info("connected to redis")
	} else {
		appLog.Info("redis not configured, caching and job locks disabled")
	}

	// email
	disp := notify.NewDispatcher(st, notify.NewMailer(cfg.Mail), cfg.Mail.Workers, cfg.Mail.Queue)
	workCtx, stopWork := context.WithCancel(ctx)
	defer stopWork()
	disp.Start(workCtx)

	h := handler.New(st, cfg.Auth.JWTSecret,
		handler.WithLocation(loc),
		handler.WithNotifier(disp),
		handler.WithCache(c),
	)

	// grpc server
	rl := middleware.NewRateLimiter(cfg.Auth.RateLimit, cfg.Auth.RateBurst)
	defer rl.Close()
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.Logging(),
			middleware.RateLimit(rl),
			middleware.Auth(cfg.Auth.JWTSecret),
		),
	)
	rpc.RegisterService(srv, h)

	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		return err
	}
	go func() {
		appLog.Info("grpc listening", "port", cfg.Server.GRPCPort)
		if err := srv.Serve(lis); err != nil {
			appLog.Error("grpc", err)
		}
	}()

	// json gateway, calling the handler in-process
	deps := gateway.Deps{
		Service:        h,
		Secret:         cfg.Auth.JWTSecret,
		Limiter:        rl,
		Origins:        cfg.Server.CORSOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		Secure:         cfg.IsProduction(),
		Version:        cfg.App.Version,
		DB:             st,
	}
	if c != nil {
		deps.Redis = c
	}
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.WebPort,
		Handler:           gateway.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLog.Info("http listening", "port", cfg.Server.WebPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("http", err)
		}
	}()

	// cron jobs
	sched := reminder.New(st, disp, c, loc, cfg.Jobs)
	if err := sched.Start(); err != nil {
		return err
	}

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("http shutdown", err)
	}
	srv.GracefulStop()
	if err := disp.Shutdown(shutdownCtx); err != nil {
		appLog.Error("mail queue not drained", err)
	}
	return nil
}
