package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/yockii/knorm/internal/job"
	"github.com/yockii/knorm/internal/model"
	"github.com/yockii/knorm/internal/server"
	"github.com/yockii/knorm/internal/service"
	"github.com/yockii/knorm/pkg/config"
	"github.com/yockii/knorm/pkg/database"
	"github.com/yockii/knorm/pkg/logger"
	"github.com/yockii/knorm/pkg/util"
)

type options struct {
	configPath string
	uuid       uint64
	output     string
}

func (o *options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.configPath, "config", "c", "", "配置文件路径")
}

func main() {
	root := &cobra.Command{
		Use:   "knorm",
		Short: "模型与提示词模板管理服务",
	}
	root.AddCommand(newServeCommand(), newPetCacheCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动HTTP服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func newPetCacheCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "petcache",
		Short: "重建模板缓存",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPetCache(cmd.Context(), opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	cmd.Flags().Uint64Var(&opts.uuid, "uuid", 0, "只重建指定模板")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "写入文件而不是发布到redis")
	return cmd
}

// setup 初始化配置、日志和数据库
func setup(configPath string) (*gorm.DB, error) {
	if err := config.Init(configPath); err != nil {
		return nil, fmt.Errorf("初始化配置失败: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	util.InitNode(config.GetUint64("server.node_id"))

	logger.Init()

	if err := database.Init(); err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	db := database.GetDB()

	// 数据库迁移
	if err := model.AutoMigrate(db, config.GetString("database.type")); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return db, nil
}

func newRefresher(templateSrv service.PromptTemplateService) *job.PetCacheRefresher {
	store := service.NewPetCacheStore(
		service.NewRedisClient(),
		time.Duration(config.GetInt64("petcache.expire"))*time.Second,
	)
	return job.NewPetCacheRefresher(templateSrv, store, config.GetString("petcache.cron"))
}

func runServe(opts *options) error {
	db, err := setup(opts.configPath)
	if err != nil {
		return err
	}
	defer database.Close()
	defer logger.Sync()

	var refresher *job.PetCacheRefresher
	if config.GetBool("petcache.enabled") {
		_, _, templateSrv, _, _ := server.NewServices(db)
		refresher = newRefresher(templateSrv)
	}

	return server.New(db, refresher).Start()
}

func runPetCache(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := setup(opts.configPath)
	if err != nil {
		return err
	}
	defer database.Close()
	defer logger.Sync()

	_, _, templateSrv, _, _ := server.NewServices(db)

	if opts.output != "" {
		return writePetCache(ctx, templateSrv, opts.uuid, opts.output)
	}

	refresher := newRefresher(templateSrv)
	if opts.uuid != 0 {
		if err := refresher.RefreshOne(ctx, opts.uuid); err != nil {
			return err
		}
		fmt.Printf("模板 %d 缓存已刷新\n", opts.uuid)
		return nil
	}
	count, err := refresher.RefreshAll(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("已发布 %d 个模板缓存\n", count)
	return nil
}

// writePetCache 导出到文件，uuid为0时导出全部
func writePetCache(ctx context.Context, templateSrv service.PromptTemplateService, uuid uint64, output string) error {
	var data interface{}
	if uuid != 0 {
		c, err := templateSrv.BuildOnePetCache(ctx, uuid)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("模板 %d 不存在", uuid)
		}
		data = c
	} else {
		caches, err := templateSrv.GetAllPetCaches(ctx)
		if err != nil {
			return err
		}
		data = caches
	}

	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if err := util.SaveFile(output, content); err != nil {
		return err
	}
	fmt.Printf("模板缓存已写入 %s\n", output)
	return nil
}
