package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"TianHe-LiveSim/room"
	"TianHe-LiveSim/server"
	"TianHe-LiveSim/utils"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runEntry entryFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Mount a simulated room and serve the preview feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		params, err := runEntry.params(cfg)
		if err != nil {
			return err
		}

		deps, cleanup, err := buildDeps(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		// 等待退出信号
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		manager := room.NewManager(ctx, deps)
		srv := server.New(manager, server.OptionsFromConfig(cfg.Server))

		r, err := manager.Mount(params)
		if err != nil {
			return fmt.Errorf("进入房间 %s 失败: %w", params.RoomID, err)
		}
		identity := r.Identity()
		fmt.Fprintf(os.Stdout, "已进入 %s 的直播间 %s（%s）\n", identity.Name, identity.ID, identity.Category)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.ListenAndServe(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			fmt.Println("正在关闭...")
			manager.Stop()
			return nil
		})

		if err := g.Wait(); err != nil {
			utils.Logger.Errorf("运行失败: %v", err)
			return err
		}
		return nil
	},
}

func init() {
	runEntry.bind(runCmd)
}
