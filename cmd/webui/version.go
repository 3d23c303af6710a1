package main

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info, ok := debug.ReadBuildInfo()
			if !ok {
				_, err := fmt.Fprintln(cmd.Root().Writer, "version: unknown")
				return err
			}
			setting := func(key string) string {
				return lo.FindOrElse(info.Settings, debug.BuildSetting{Value: "unknown"}, func(s debug.BuildSetting) bool {
					return s.Key == key
				}).Value
			}
			_, err := fmt.Fprintf(cmd.Root().Writer, "version:  %s\ncommit:   %s\nbuilt:    %s\ngo:       %s\n",
				info.Main.Version, setting("vcs.revision"), setting("vcs.time"), info.GoVersion)
			return err
		},
	}
}
