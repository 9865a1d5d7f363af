package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"damage-vision/config"
	app "damage-vision/internal/application"
	"damage-vision/internal/container"
	"damage-vision/pkg/logger"
)

var rootOpts struct {
	multiFrame bool
	saveReport bool
	noAnnotate bool

	vehicleMake    string
	vehicleModel   string
	vehicleYear    int
	vehicleVariant string
}

var rootCmd = &cobra.Command{
	Use:   "damage-vision [file]",
	Short: "Анализ повреждений автомобиля по фото и видео",
	Long: `Определяет повреждения автомобиля на изображениях и видео через
vision-модели, оценивает стоимость ремонта и формирует текстовый отчёт.

Без аргументов запускается интерактивный режим.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, c, err := setup()
		if err != nil {
			return err
		}
		defer c.Close()
		defer log.Sync()

		if len(args) == 0 {
			return runInteractive(cmd.Context(), c)
		}
		return analyzeOne(cmd.Context(), c, args[0])
	},
}

// Execute точка входа командной строки.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&rootOpts.multiFrame, "multi-frame", false, "анализировать несколько кадров видео")
	rootCmd.Flags().BoolVar(&rootOpts.saveReport, "save-report", false, "сохранить отчёт в каталог отчётов")
	rootCmd.Flags().BoolVar(&rootOpts.noAnnotate, "no-annotate", false, "не рисовать рамки повреждений")
	rootCmd.Flags().StringVar(&rootOpts.vehicleMake, "make", "", "марка автомобиля для оценки стоимости")
	rootCmd.Flags().StringVar(&rootOpts.vehicleModel, "model", "", "модель автомобиля")
	rootCmd.Flags().IntVar(&rootOpts.vehicleYear, "year", 0, "год выпуска")
	rootCmd.Flags().StringVar(&rootOpts.vehicleVariant, "variant", "", "комплектация")
}

// setup загружает конфигурацию и собирает контейнер сервисов.
func setup() (*config.Config, *zap.Logger, *container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := logger.New(cfg.App.Debug)
	if err != nil {
		return nil, nil, nil, err
	}

	c, err := container.New(context.Background(), cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, c, nil
}

func analyzeOptions() app.AnalyzeOptions {
	return app.AnalyzeOptions{
		MultiFrame: rootOpts.multiFrame,
		SaveReport: rootOpts.saveReport,
		Annotate:   !rootOpts.noAnnotate,
		Vehicle: app.VehicleInfo{
			Make:    rootOpts.vehicleMake,
			Model:   rootOpts.vehicleModel,
			Year:    rootOpts.vehicleYear,
			Variant: rootOpts.vehicleVariant,
		},
	}
}

// analyzeOne анализирует один файл и печатает отчёт.
func analyzeOne(ctx context.Context, c *container.Container, path string) error {
	a, err := c.AssessmentService.AnalyzeFile(ctx, path, analyzeOptions())
	if err != nil {
		return err
	}

	fmt.Println(a.FullReport())

	if len(a.Estimates) > 0 {
		fmt.Println("\nRepair cost estimates:")
		for _, e := range a.Estimates {
			fmt.Printf("  %-20s %.2f %s\n", e.DamageType, e.EstimatedCost, e.Currency)
		}
	}
	if a.ReportFilePath != "" {
		fmt.Printf("\nReport saved: %s\n", a.ReportFilePath)
	}
	return nil
}

// runInteractive читает пути к файлам из stdin до команды quit.
func runInteractive(ctx context.Context, c *container.Container) error {
	fmt.Println("Vehicle damage detection. Enter a file path, or 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit" || line == "q":
			return nil
		}

		if err := analyzeOne(ctx, c, line); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
}
