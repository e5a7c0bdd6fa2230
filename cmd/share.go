package cmd

import (
	"fmt"

	"TianHe-LiveSim/share"

	"github.com/spf13/cobra"
)

var (
	shareEntry entryFlags
	shareOut   string
	shareSize  int
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Print the room entry URL and its QR code",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		params, err := shareEntry.params(cfg)
		if err != nil {
			return err
		}

		code, err := share.New(cfg.EntryBase, params)
		if err != nil {
			return err
		}
		if shareOut != "" {
			if err := code.WritePNG(shareOut, shareSize); err != nil {
				return err
			}
		}

		// 在终端显示二维码
		fmt.Println(code.Terminal())
		fmt.Println(code.URL)
		return nil
	},
}

func init() {
	shareEntry.bind(shareCmd)
	shareCmd.Flags().StringVar(&shareOut, "out", "", "write the QR code as PNG to this path")
	shareCmd.Flags().IntVar(&shareSize, "size", 256, "PNG size in pixels")
}
