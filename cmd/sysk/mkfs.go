package main

import (
	"github.com/spf13/cobra"

	"github.com/pdesnoyers/sysk/blockdev"
	"github.com/pdesnoyers/sysk/fsx"
)

func newMkfsCmd() *cobra.Command {
	var numBlocks int
	var numInodes int

	cmd := &cobra.Command{
		Use:   "mkfs <image>",
		Short: "create and format a fixed-block image",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd.Flags())
			log := newLogger(cfg)
			withFatalRecovery(log, func() error {
				dev, err := blockdev.OpenFileDevice(args[0], numBlocks, true)
				if err != nil {
					return err
				}
				defer dev.Close()
				n := numInodes
				if n <= 0 && cfg.InodeRatio > 0 {
					n = numBlocks / cfg.InodeRatio
				}
				if err := fsx.Mkfs(dev, fsx.MkfsOptions{NumInodes: n}); err != nil {
					return err
				}
				log.Printf("formatted %s: %d blocks", args[0], numBlocks)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&numBlocks, "blocks", 4096, "image size in blocks")
	cmd.Flags().IntVar(&numInodes, "inodes", 0, "inode table size (0: derive from --blocks)")
	return cmd
}
