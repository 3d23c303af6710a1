package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmorgan81/webuibot/internal/image"
	"github.com/dmorgan81/webuibot/internal/predict"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

func invokeCmd() *cli.Command {
	return &cli.Command{
		Name:  "invoke",
		Usage: "Call the function and save its first output",
		Flags: lo.Flatten([][]cli.Flag{
			configFlags(),
			connectionFlags(),
			argumentFlags(),
			loggingFlags(),
			{
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Usage:   `output file, "-" for stdout (default output.<ext> by content)`,
				},
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, err := withLogger(ctx, cmd)
			if err != nil {
				return err
			}

			s, err := resolve(cmd)
			if err != nil {
				return err
			}
			args, err := s.tokenize()
			if err != nil {
				return err
			}

			client := predict.NewClient(s.host, s.fnIndex)
			data, err := client.Invoke(ctx, args)
			if err != nil {
				return err
			}
			if data == nil {
				return errors.New("web ui returned no result")
			}

			out := cmd.String("out")
			if out == "-" {
				_, err := cmd.Root().Writer.Write(data)
				return err
			}
			if out == "" {
				_, ext := image.DetectContentType(data)
				out = "output" + ext
			}
			if err := os.WriteFile(out, data, 0600); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.Root().ErrWriter, "wrote %d bytes to %s\n", len(data), out)
			return nil
		},
	}
}
