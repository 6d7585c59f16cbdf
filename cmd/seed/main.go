package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/repository"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/seed"
	"github.com/sysu-ecnc-dev/appointment-manager/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机客户, 2: 插入随机服务, 3: 插入随机预约, 4: 插入演示数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的客户数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomClient(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				slog.Error("无法生成随机客户", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(user); err != nil {
				slog.Error("无法插入客户", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入客户成功", slog.Int("count", cnt))
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的服务数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			svc := utils.GenerateRandomService()
			if err := utils.ValidateServiceTime(svc); err != nil {
				slog.Error("生成的服务不合法", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateService(svc); err != nil {
				slog.Error("无法插入服务", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入服务成功", slog.Int("count", cnt))
	case 3:
		if n <= 0 {
			slog.Error("请输入合法的预约数量")
			return
		}

		services, err := repo.GetAllServices()
		if err != nil {
			slog.Error("无法获取所有服务", slog.String("error", err.Error()))
			return
		}
		clients, err := repo.GetUsersByRole(domain.RoleClient)
		if err != nil {
			slog.Error("无法获取所有客户", slog.String("error", err.Error()))
			return
		}
		if len(services) == 0 || len(clients) == 0 {
			slog.Error("请先插入服务和客户")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			svc := services[rand.Intn(len(services))]
			client := clients[rand.Intn(len(clients))]

			apt, err := utils.GenerateRandomAppointment(svc, client)
			if err != nil {
				slog.Error("无法生成随机预约", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateAppointment(apt); err != nil {
				slog.Error("无法插入预约", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入预约成功", slog.Int("count", cnt))
	case 4:
		if err := seed.SeedDemoScenario(repo, cfg.Seed.User.Password, cfg.Email.UserDomain); err != nil {
			slog.Error("无法插入演示数据", slog.String("error", err.Error()))
			return
		}
		slog.Info("插入演示数据成功")
	default:
		slog.Error("指定的操作非法")
	}
}
