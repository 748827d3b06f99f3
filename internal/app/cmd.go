package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hitoshi/kbase/internal/filter"
)

// queryOptions は query サブコマンドのフラグ。
type queryOptions struct {
	params filter.Params
	limit  int
	json   bool
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。サブコマンド省略時は serve として扱う。
// コマンドの出力は stdout に、ログは stderr に書き込む。
func Run(stdout, stderr io.Writer, args []string) error {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.Execute()
}

// NewRootCommand は kbase のコマンドツリーを構築する。
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the knowledge base API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Init(stderr)
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			slog.Info("starting application",
				slog.String("command", "serve"),
				slog.String("port", cfg.ServerPort),
			)
			return runServe(cfg)
		},
	}

	root := &cobra.Command{
		Use:           "kbase",
		Short:         "Systems engineering knowledge base",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          serveCmd.RunE,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	healthcheckCmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe the local /health endpoint (for container health checks)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealthcheck(healthcheckPort())
		},
	}

	var opts queryOptions
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Filter and sort the catalog once and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newOfflineService(stderr)
			if err != nil {
				return err
			}
			defer svc.close()
			return runQuery(cmd.OutOrStdout(), svc.service, opts)
		},
	}
	flags := queryCmd.Flags()
	flags.StringVarP(&opts.params.Category, "category", "c", "", "category id (all for no filter)")
	flags.StringVar(&opts.params.Subcategory, "subcategory", "", "subcategory name")
	flags.StringArrayVarP(&opts.params.Tags, "tag", "t", nil, "tag to match (repeatable, any-of)")
	flags.StringVarP(&opts.params.SearchQuery, "search", "q", "", "case-insensitive search text")
	flags.StringVarP(&opts.params.SortBy, "sort", "s", "", "newest | popular | rating | name")
	flags.StringVar(&opts.params.ViewMode, "view", "", "grid | list (list prints author, file type and size)")
	flags.IntVarP(&opts.limit, "limit", "n", 0, "print at most N items (0 for all)")
	flags.BoolVar(&opts.json, "json", false, "print JSON instead of a table")

	var strict bool
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the catalog file and report consistency warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Init(stderr)
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			return runCheck(cmd.OutOrStdout(), cfg, strict)
		},
	}
	checkCmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")

	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories with item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newOfflineService(stderr)
			if err != nil {
				return err
			}
			defer svc.close()
			return runCategories(cmd.OutOrStdout(), svc.service)
		},
	}

	root.AddCommand(serveCmd, healthcheckCmd, queryCmd, checkCmd, categoriesCmd)
	return root
}
