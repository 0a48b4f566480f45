package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/motolog/internal/advice"
	"github.com/tonimelisma/motolog/internal/config"
	"github.com/tonimelisma/motolog/internal/ridelog"
)

// Chat commands understood by the interactive advise loop.
const (
	chatQuit   = "/quit"
	chatReload = "/reload"
)

func newAdviseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advise [question]",
		Short: "Ask a riding coach about your setup and riding",
		Long: `Ask the coaching model a question. Your profile, injuries, recent
sessions, and active suspension preset are sent along with it.

With a question, prints one answer and exits. Without one, starts a chat:
type questions line by line, /reload to re-read the log, /quit to leave.
Edits to the [advice] section of the config file apply to the next message.

Requires ANTHROPIC_API_KEY (from the environment or a .env file).`,
		Example: `  motolog advise "Front end pushes in flat corners, what should I change?"`,
		RunE: runAdvise,
	}
}

func runAdvise(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	advisor, err := advice.New(advice.Config{
		APIKey:     cc.Cfg.AdviceAPIKey,
		BaseURL:    cc.Cfg.Advice.APIURL,
		Model:      cc.Cfg.Advice.Model,
		MaxTokens:  cc.Cfg.Advice.MaxTokens,
		MaxRetries: cc.Cfg.Network.MaxRetries,
		HTTPClient: cc.httpClient(),
		Logger:     cc.Logger,
	})
	if err != nil {
		return err
	}

	_, snap, err := cc.loadLog(ctx)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		system := advice.SystemPrompt(snap, cc.now())

		reply, err := advisor.Ask(ctx, system, []advice.Turn{{Role: advice.RoleUser, Text: strings.Join(args, " ")}})
		if err != nil {
			return err
		}

		fmt.Fprintln(cc.Out, reply)

		return nil
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	go watchAdviceConfig(watchCtx, cc, advisor)

	return chatLoop(ctx, cc, advisor, snap, cmd.InOrStdin())
}

// watchAdviceConfig applies model changes from the config file until ctx
// ends. A config without a file on disk is not watched.
func watchAdviceConfig(ctx context.Context, cc *CLIContext, advisor *advice.Advisor) {
	cfg := cc.Cfg.Config
	holder := config.NewHolder(&cfg, cc.Cfg.Path)

	err := config.Watch(ctx, holder, cc.Logger, func(c *config.Config) {
		advisor.Configure(c.Advice.Model, c.Advice.MaxTokens)
		cc.Logger.Info("advice settings updated",
			slog.String("model", c.Advice.Model),
			slog.Int("max_tokens", c.Advice.MaxTokens),
		)
	})
	if err != nil {
		cc.Logger.Debug("config file not watched", slog.String("error", err.Error()))
	}
}

// chatLoop reads questions from in until EOF or /quit. A failed request is
// reported and the chat continues.
func chatLoop(ctx context.Context, cc *CLIContext, advisor *advice.Advisor, snap *ridelog.Snapshot, in io.Reader) error {
	conv := advice.NewConversation(advisor, func() string {
		return advice.SystemPrompt(snap, cc.now())
	})

	cc.Statusf("Ask about your riding or setup. %s re-reads the log, %s leaves.\n", chatReload, chatQuit)

	scanner := bufio.NewScanner(in)

	for {
		cc.Statusf("> ")

		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())

		switch question {
		case "":
			continue
		case chatQuit:
			return nil
		case chatReload:
			_, fresh, err := cc.loadLog(ctx)
			if err != nil {
				fmt.Fprintf(cc.Out, "Could not reload: %v\n", err)
				continue
			}

			snap = fresh
			cc.Statusf("Log reloaded.\n")

			continue
		}

		reply, err := conv.Send(ctx, question)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			fmt.Fprintf(cc.Out, "Coach unavailable: %s\n", advice.DescribeError(err))

			continue
		}

		fmt.Fprintf(cc.Out, "%s\n\n", reply)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}
