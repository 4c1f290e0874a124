package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	core "selectkit/data/db"
	basicdb "selectkit/data/db/basic"
	"selectkit/data/db/dialect"
	appErrors "selectkit/errors"
	"selectkit/logging"
)

const envPrefix = "SELECTKIT"

// loadConfig 按优先级合并配置：命令行 > 环境变量 > 配置文件 > 默认值
//
// 未显式指定 --config 时依次查找 ./selectkit.yaml 与 $HOME/.config/selectkit/selectkit.yaml，
// 找不到配置文件不视为错误。
func loadConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("driver", "sqlite")
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("selectkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "selectkit"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

// dbConfig 从 viper 读取数据库配置
func dbConfig(v *viper.Viper) core.DBConfig {
	return core.DBConfig{
		Driver:          v.GetString("driver"),
		DSN:             v.GetString("dsn"),
		MaxOpenConns:    v.GetInt("max_open_conns"),
		MaxIdleConns:    v.GetInt("max_idle_conns"),
		ConnMaxLifetime: v.GetInt("conn_max_lifetime"),
		ConnMaxIdleTime: v.GetInt("conn_max_idle_time"),
	}
}

// setupLogger 根据 log_level 替换全局 Logger
func setupLogger(v *viper.Viper) error {
	level, err := logging.ParseLevel(v.GetString("log_level"))
	if err != nil {
		return err
	}
	logging.SetLogger(logging.NewLevelLogger(logging.NewStdLogger("[selectctl]"), level))
	return nil
}

// openDB 打开数据库并记录推断出的方言
func openDB(ctx context.Context, v *viper.Viper) (core.IDatabase, error) {
	db, err := basicdb.New(dbConfig(v))
	if err != nil {
		return nil, appErrors.WrapWithLog(ctx, err, appErrors.ErrCodeDatabase, "selectctl: open database failed",
			logging.String("driver", v.GetString("driver")))
	}
	logging.GetLogger().Debug(ctx, "selectctl: database opened",
		logging.String("driver", db.GetDialectName()),
		logging.String("dialect", string(dialect.FromDatabase(db).Name())))
	return db, nil
}
