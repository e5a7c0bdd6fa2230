package cmd

import (
	"TianHe-LiveSim/cache"
	"TianHe-LiveSim/collab"
	"TianHe-LiveSim/config"
	"TianHe-LiveSim/generation"
	"TianHe-LiveSim/phrase"
	"TianHe-LiveSim/room"
	"TianHe-LiveSim/utils"

	"github.com/redis/go-redis/v9"
)

// buildDeps 按配置组装房间协作方，返回的 cleanup 关闭外部连接
func buildDeps(cfg *config.Config) (room.Deps, func(), error) {
	deps := room.Deps{
		Config:  cfg,
		Wallet:  collab.NewMemoryWallet(cfg.Wallet.InitialBalance),
		Persona: collab.StaticPersona(cfg.ViewerName),
	}
	cleanup := func() {}

	var client *redis.Client
	if cfg.Cache.Backend == "redis" || cfg.Social.Backend == "redis" {
		c, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			return deps, cleanup, err
		}
		client = c
		cleanup = func() {
			if err := client.Close(); err != nil {
				utils.Logger.Warnf("关闭 Redis 连接失败: %v", err)
			}
		}
	}

	switch cfg.Cache.Backend {
	case "redis":
		deps.Store = cache.NewRedisStore(client, cfg.Cache.Prefix, cfg.Cache.TTL)
	default:
		deps.Store = cache.NewMemoryStore(cfg.Cache.Size, cfg.Cache.TTL)
	}

	switch cfg.Social.Backend {
	case "redis":
		deps.Social = collab.NewRedisSocialFeed(client, cfg.Cache.Prefix, cfg.Social.MaxPosts)
	default:
		deps.Social = collab.NewMemorySocialFeed(int(cfg.Social.MaxPosts))
	}

	deps.Generator = buildGenerator(cfg.Generation)
	return deps, cleanup, nil
}

// buildGenerator 未配置密钥时使用离线生成
func buildGenerator(cfg config.GenerationConfig) generation.Generator {
	if cfg.Provider == "offline" {
		return generation.Offline(phrase.NewPicker(0))
	}
	gen, err := generation.NewOpenAIGenerator(cfg)
	if err != nil {
		utils.Logger.Warnf("生成服务不可用，使用离线内容: %v", err)
		return generation.Offline(phrase.NewPicker(0))
	}
	utils.Logger.Infof("使用生成模型 %s", cfg.Model)
	return gen
}
