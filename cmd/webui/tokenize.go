package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

func tokenizeCmd() *cli.Command {
	return &cli.Command{
		Name:  "tokenize",
		Usage: "Show how an argument list will be typed, without calling anything",
		Flags: lo.Flatten([][]cli.Flag{
			configFlags(),
			argumentFlags(),
			{
				&cli.BoolFlag{
					Name:  "types",
					Usage: "print one argument per line with its type",
				},
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := resolve(cmd)
			if err != nil {
				return err
			}
			args, err := s.tokenize()
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			if cmd.Bool("types") {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for i, arg := range args {
					_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", i, arg.Kind(), arg)
				}
				return tw.Flush()
			}

			data, err := json.MarshalIndent(args, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(data))
			return err
		},
	}
}
