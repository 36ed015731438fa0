package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hitoshi/wikicontest/internal/config"
	"github.com/hitoshi/wikicontest/internal/logger"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker はコンテスト状態同期ワーカーを起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// NewRootCommand はサブコマンドを登録したルートコマンドを生成する。
// サブコマンドを省略した場合はserveとして動作する。
func NewRootCommand(w io.Writer) *cobra.Command {
	var logLevel string

	// withConfig は設定を読み込んでからfnを実行するRunEを返す。
	withConfig := func(name Command, fn func(ctx context.Context, cfg *config.Config) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := Init(w)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				logger.SetupDefault(w, logger.ParseLevel(logLevel))
			}

			slog.Info("starting application",
				slog.String("command", string(name)),
				slog.String("port", cfg.ServerPort),
			)
			return fn(cmd.Context(), cfg)
		}
	}

	root := &cobra.Command{
		Use:           "wikicontest",
		Short:         "Proofreading contest backend for MediaWiki projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          withConfig(CommandServe, runServe),
	}
	root.SetOut(w)
	root.SetErr(w)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   string(CommandServe),
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  withConfig(CommandServe, runServe),
	})

	root.AddCommand(&cobra.Command{
		Use:   string(CommandWorker),
		Short: "Periodically deactivate contests past their end date",
		Args:  cobra.NoArgs,
		RunE:  withConfig(CommandWorker, runWorker),
	})

	root.AddCommand(&cobra.Command{
		Use:   string(CommandMigrate),
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE:  withConfig(CommandMigrate, runMigrate),
	})

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	var port string
	healthcheck := &cobra.Command{
		Use:   string(CommandHealthcheck),
		Short: "Probe the local /health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealthcheck(cmd.Context(), port)
		},
	}
	healthcheck.Flags().StringVar(&port, "port", defaultPort(), "Port of the local API server")
	root.AddCommand(healthcheck)

	return root
}

func defaultPort() string {
	if p := os.Getenv("SERVER_PORT"); p != "" {
		return p
	}
	return "8080"
}
