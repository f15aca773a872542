package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdesnoyers/sysk/blockdev"
	"github.com/pdesnoyers/sysk/raid"
)

var errUnknownRaidKind = errors.New("sysk: --kind must be mirror or stripe4")

func newRaidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raid",
		Short: "operate on a stacked RAID volume",
	}
	cmd.AddCommand(newRaidReplaceCmd())
	return cmd
}

func newRaidReplaceCmd() *cobra.Command {
	var kind string
	var unit int

	cmd := &cobra.Command{
		Use:   "replace <slot> <new-image> <member-image...>",
		Short: "rebuild a failed member of a mirror or RAID-4 volume onto a fresh image",
		Args:  cobra.MinimumNArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd.Flags())
			log := newLogger(cfg)
			withFatalRecovery(log, func() error {
				slot, err := parseSlot(args[0])
				if err != nil {
					return err
				}
				newImage := args[1]
				memberPaths := args[2:]

				members := make([]blockdev.Device, len(memberPaths))
				var g errgroup.Group
				for i, p := range memberPaths {
					i, p := i, p
					g.Go(func() error {
						d, err := openExisting(p)
						if err != nil {
							return err
						}
						members[i] = d
						return nil
					})
				}
				if err := g.Wait(); err != nil {
					return err
				}

				var size int
				if len(members) > 0 {
					size = members[0].NumBlocks()
				}
				newDev, err := blockdev.OpenFileDevice(newImage, size, true)
				if err != nil {
					return err
				}

				switch kind {
				case "mirror":
					m, err := raid.NewMirror(members[0], members[1])
					if err != nil {
						return err
					}
					if err := m.Replace(slot, newDev); err != nil {
						return err
					}
					log.Printf("replaced mirror slot %d with %s", slot, newImage)
				case "stripe4":
					s, err := raid.NewStripe4(members, unit)
					if err != nil {
						return err
					}
					if err := s.Replace(slot, newDev); err != nil {
						return err
					}
					log.Printf("replaced stripe4 slot %d with %s", slot, newImage)
				default:
					return errUnknownRaidKind
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "mirror", "volume kind: mirror or stripe4")
	cmd.Flags().IntVar(&unit, "unit", 8, "stripe unit size in blocks (stripe4 only)")
	return cmd
}

func parseSlot(s string) (int, error) {
	var slot int
	_, err := fmt.Sscanf(s, "%d", &slot)
	return slot, err
}
