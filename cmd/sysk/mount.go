package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdesnoyers/sysk/blockdev"
	"github.com/pdesnoyers/sysk/fsx"
)

func openExisting(path string) (*blockdev.FileDevice, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	numBlocks := int(fi.Size() / blockdev.BlockSize)
	return blockdev.OpenFileDevice(path, numBlocks, false)
}

func newMountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount <image>",
		Short: "mount an image and drive a line-oriented shell over it",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd.Flags())
			log := newLogger(cfg)
			withFatalRecovery(log, func() error {
				dev, err := openExisting(args[0])
				if err != nil {
					return err
				}
				defer dev.Close()
				fs, err := fsx.Init(dev, fsx.WithLogger(log))
				if err != nil {
					return err
				}
				runShell(fs, cmd.InOrStdin(), cmd.OutOrStdout())
				return nil
			})
		},
	}
	return cmd
}

// runShell is the "host that dispatches file-system operations" for
// interactive use: the actual FUSE kernel binding is out of scope, so
// this line-oriented loop calls the fsx.FileSystem operations table
// directly, the same way a kernel host would.
func runShell(fs *fsx.FileSystem, in io.Reader, w io.Writer) {
	ctx := context.Background()
	scanner := bufio.NewScanner(in)
	fmt.Fprint(w, "sysk> ")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			fmt.Fprint(w, "sysk> ")
			continue
		}
		switch fields[0] {
		case "ls":
			path := "/"
			if len(fields) > 1 {
				path = fields[1]
			}
			entries, errno := fs.Readdir(ctx, path)
			if errno != 0 {
				fmt.Fprintf(w, "ls: %v\n", errno)
				break
			}
			for _, e := range entries {
				fmt.Fprintln(w, e.Name)
			}
		case "stat":
			if len(fields) < 2 {
				fmt.Fprintln(w, "usage: stat <path>")
				break
			}
			st, errno := fs.Getattr(ctx, fields[1])
			if errno != 0 {
				fmt.Fprintf(w, "stat: %v\n", errno)
				break
			}
			fmt.Fprintf(w, "mode=%o size=%d\n", st.Mode, st.Size)
		case "mkdir":
			if len(fields) < 2 {
				fmt.Fprintln(w, "usage: mkdir <path>")
				break
			}
			if errno := fs.Mkdir(ctx, fields[1], 0755); errno != 0 {
				fmt.Fprintf(w, "mkdir: %v\n", errno)
			}
		case "rm":
			if len(fields) < 2 {
				fmt.Fprintln(w, "usage: rm <path>")
				break
			}
			if errno := fs.Unlink(ctx, fields[1]); errno != 0 {
				fmt.Fprintf(w, "rm: %v\n", errno)
			}
		case "cat":
			if len(fields) < 2 {
				fmt.Fprintln(w, "usage: cat <path>")
				break
			}
			buf := make([]byte, 65536)
			off := int64(0)
			for {
				n, errno := fs.Read(ctx, fields[1], buf, off)
				if errno != 0 {
					fmt.Fprintf(w, "cat: %v\n", errno)
					break
				}
				if n == 0 {
					break
				}
				w.Write(buf[:n])
				off += int64(n)
			}
		case "write":
			if len(fields) < 3 {
				fmt.Fprintln(w, "usage: write <path> <text...>")
				break
			}
			text := strings.Join(fields[2:], " ")
			if _, errno := fs.Write(ctx, fields[1], []byte(text), 0); errno != 0 {
				fmt.Fprintf(w, "write: %v\n", errno)
			}
		case "mknod":
			if len(fields) < 2 {
				fmt.Fprintln(w, "usage: mknod <path>")
				break
			}
			if errno := fs.Mknod(ctx, fields[1], 0644); errno != 0 {
				fmt.Fprintf(w, "mknod: %v\n", errno)
			}
		case "quit", "exit":
			return
		default:
			fmt.Fprintf(w, "unknown command %q\n", fields[0])
		}
		fmt.Fprint(w, "sysk> ")
	}
}
