package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"damage-vision/internal/api/telegram"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Запустить Telegram-бота оценки повреждений",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, c, err := setup()
		if err != nil {
			return err
		}
		defer c.Close()
		defer log.Sync()

		if cfg.Telegram.Token == "" {
			return fmt.Errorf("TELEGRAM_TOKEN is required")
		}

		bot, err := telegram.NewBot(cfg.Telegram.Token, c.UserService, c.AssessmentService, log)
		if err != nil {
			return fmt.Errorf("create bot: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Info("bot is running")
		if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(botCmd)
}
