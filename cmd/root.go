package cmd

import (
	"os"

	"TianHe-LiveSim/config"
	"TianHe-LiveSim/utils"

	"github.com/spf13/cobra"
)

var (
	configPath string
	configName string
)

var RootCmd = &cobra.Command{
	Use:   "livesim",
	Short: "Simulated live broadcast room engine",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "./config", "config directory")
	RootCmd.PersistentFlags().StringVar(&configName, "config-name", "livesim", "config file name without extension")
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(shareCmd)
}

// loadConfig 读取配置并初始化日志
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath, configName)
	if err != nil {
		return nil, err
	}
	utils.InitLogger(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		utils.Logger.Error(err)
		os.Exit(1)
	}
}
