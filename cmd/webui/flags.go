package main

import (
	"context"
	"errors"
	"os"

	"github.com/dmorgan81/webuibot/internal/log"
	"github.com/dmorgan81/webuibot/internal/predict"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "TOML profile with host, fn_index, args, prompt and negative_prompt",
			Sources: cli.EnvVars("WEBUI_CONFIG"),
		},
	}
}

func connectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Usage:   "web ui address",
			Value:   predict.DefaultHost,
			Sources: cli.EnvVars("WEBUI_HOST"),
		},
		&cli.IntFlag{
			Name:    "fn-index",
			Aliases: []string{"f"},
			Usage:   "fn_index of the function to call, as sent by the web ui's page",
			Sources: cli.EnvVars("WEBUI_FN_INDEX"),
		},
	}
}

func argumentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "args",
			Aliases: []string{"a"},
			Usage:   `the request's "data" list, e.g. '["a kitten", "", 20, true]'`,
			Sources: cli.EnvVars("WEBUI_ARGS"),
		},
		&cli.StringFlag{
			Name:  "args-file",
			Usage: "read the data list from a file instead of --args",
		},
		&cli.StringFlag{
			Name:    "prompt",
			Aliases: []string{"p"},
			Usage:   "replace the first argument with this prompt",
		},
		&cli.StringFlag{
			Name:    "negative-prompt",
			Aliases: []string{"n"},
			Usage:   "replace the second argument with this negative prompt (needs --prompt)",
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level (debug, info, warn, error)",
			Value:   "warn",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}
}

func withLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level, err := log.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return ctx, err
	}
	return log.NewContext(ctx, log.NewWithLevel(cmd.Root().ErrWriter, level)), nil
}

type settings struct {
	host     string
	fnIndex  int
	raw      string
	prompt   *string
	negative string
}

// resolve merges flags over the --config profile.
func resolve(cmd *cli.Command) (settings, error) {
	p, err := loadProfile(cmd.String("config"))
	if err != nil {
		return settings{}, err
	}

	s := settings{
		host:     cmd.String("host"),
		fnIndex:  int(cmd.Int("fn-index")),
		negative: cmd.String("negative-prompt"),
	}
	if !cmd.IsSet("host") && p.Host != "" {
		s.host = p.Host
	}
	if !cmd.IsSet("fn-index") && p.FnIndex != nil {
		s.fnIndex = *p.FnIndex
	}
	if cmd.IsSet("prompt") {
		s.prompt = lo.ToPtr(cmd.String("prompt"))
	} else if p.Prompt != "" {
		s.prompt = lo.ToPtr(p.Prompt)
	}
	if !cmd.IsSet("negative-prompt") {
		s.negative = p.NegativePrompt
	}

	switch {
	case cmd.String("args-file") != "":
		data, err := os.ReadFile(cmd.String("args-file"))
		if err != nil {
			return settings{}, err
		}
		s.raw = string(data)
	case cmd.IsSet("args"):
		s.raw = cmd.String("args")
	case p.Args != "":
		s.raw = p.Args
	default:
		return settings{}, errors.New("one of --args, --args-file or a config with args is required")
	}
	return s, nil
}

// tokenize applies the prompt and negative prompt when a prompt is given. A
// negative prompt on its own is an error.
func (s settings) tokenize() (predict.Args, error) {
	if s.prompt != nil {
		return predict.TokenizeWithPrompts(s.raw, *s.prompt, s.negative)
	}
	if s.negative != "" {
		return nil, errors.New("--negative-prompt needs --prompt")
	}
	return predict.Tokenize(s.raw), nil
}
