package main

import (
	"context"
	"fmt"

	"github.com/dmorgan81/webuibot/internal/handler"
	"github.com/dmorgan81/webuibot/internal/inject"
	"github.com/goccy/go-json"
	"github.com/samber/do"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

func generateCmd() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Run the publishing handler once, configured from the environment",
		Flags: lo.Flatten([][]cli.Flag{
			connectionFlags(),
			loggingFlags(),
			{
				&cli.StringFlag{Name: "args", Usage: "override WEBUI_ARGS", Sources: cli.EnvVars("WEBUI_ARGS")},
				&cli.StringFlag{Name: "date", Usage: "publish under this date instead of today"},
				&cli.StringFlag{Name: "prompt", Aliases: []string{"p"}, Usage: "prompt (default random from PROMPTS)"},
				&cli.StringFlag{Name: "negative-prompt", Aliases: []string{"n"}, Usage: "negative prompt"},
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, err := withLogger(ctx, cmd)
			if err != nil {
				return err
			}

			injector := inject.Setup(ctx)
			defer func() { _ = injector.Shutdown() }()

			do.OverrideNamedValue(injector, "webui_host", cmd.String("host"))
			if cmd.IsSet("fn-index") {
				do.OverrideNamedValue(injector, "webui_fn_index", int(cmd.Int("fn-index")))
			}
			if cmd.IsSet("args") {
				do.OverrideNamedValue(injector, "webui_args", cmd.String("args"))
			}

			h, err := do.Invoke[*handler.Handler](injector)
			if err != nil {
				return err
			}
			out, err := h.Handle(ctx, handler.Input{
				Date:           cmd.String("date"),
				Prompt:         cmd.String("prompt"),
				NegativePrompt: cmd.String("negative-prompt"),
			})
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, string(data))
			return err
		},
	}
}
