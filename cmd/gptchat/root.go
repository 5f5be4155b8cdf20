package main

import (
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/comigor/gptchat/internal/chat"
	"github.com/comigor/gptchat/internal/config"
	"github.com/comigor/gptchat/internal/console"
	"github.com/comigor/gptchat/internal/history"
	"github.com/comigor/gptchat/internal/llm"
	"github.com/comigor/gptchat/internal/logger"
)

type options struct {
	configPath   string
	historyPath  string
	questionFile string
	delay        time.Duration
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "gptchat",
		Short: "Chat with an OpenAI model from the terminal",
		Long: `gptchat keeps a conversation with an OpenAI chat model. Every exchange is
saved to a history file after each answer, so a session can be resumed later
with --history.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger.SetOutput(cmd.ErrOrStderr())
			return config.LoadDotEnv()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	// accept --question_file as well as --question-file
	cmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	cmd.Flags().StringVar(&opts.historyPath, "history", "", "history file (or session id) to resume")
	cmd.Flags().StringVar(&opts.questionFile, "question-file", "", "file whose content is asked before the interactive prompt")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default ./config.yaml)")
	cmd.Flags().DurationVar(&opts.delay, "delay", chat.DefaultDelay, "pause before every request (overrides llm.delay)")

	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Log.Level)
	delay := cfg.LLM.Delay
	if cmd.Flags().Changed("delay") {
		delay = opts.delay
	}
	if err := cfg.LoadCredential(); err != nil {
		return err
	}

	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.L.Warn("history store close failed", "error", cerr)
		}
	}()

	completer := llm.NewCompleter(llm.NewClient(cfg.LLM), cfg.LLM)
	ctx := cmd.Context()
	conv, err := chat.Open(ctx, store, completer, opts.historyPath)
	if err != nil {
		return err
	}

	s := &session{
		conv:    conv,
		printer: console.NewPrinter(cmd.OutOrStdout(), !color.NoColor),
		in:      cmd.InOrStdin(),
		out:     cmd.OutOrStdout(),
		delay:   delay,
	}
	return s.run(ctx, opts.questionFile)
}
