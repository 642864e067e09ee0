package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/livp123/logvault/internal/config"
	"github.com/livp123/logvault/internal/utils/logger"
)

var (
	cfgPath string
	cfg     *config.Config
)

var RootCmd = &cobra.Command{
	Use:   "logvault",
	Short: "A structured, date-partitioned event store with log parsers",
	// Short: 结构化、按日期分区的事件存储及日志解析器
	Long: `logvault ingests application events and external text logs (web server
access/error, syslog, auth, firewall, database) into a uniform structured
event store, partitioned by UTC date and category.
logvault 将应用事件和外部文本日志统一摄取到按 UTC 日期和类别分区的
结构化事件存储中。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration to get logging settings
		// 加载配置以获取日志设置
		path := cfgPath
		if path == "" {
			path = config.DefaultConfigPath
		}

		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Init(cfg.Logging)

		// Inject logger into context
		// 将 Logger 注入 Context
		ctx := logger.WithContext(cmd.Context(), logger.Get(nil))
		cmd.SetContext(ctx)
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", fmt.Sprintf("Path to configuration file (default: %s)", config.DefaultConfigPath))
}
