package cmd

import (
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bstdenis/xscen/internal/catalog"
	"github.com/bstdenis/xscen/internal/config"
	"github.com/bstdenis/xscen/internal/ingest"
)

var (
	parseDirs     []string
	parsePatterns []string
)

func init() {
	parseCmd.Flags().StringArrayVarP(&parseDirs, "dir", "d", nil, "Root directory to scan (repeatable, adds to config)")
	parseCmd.Flags().StringArrayVarP(&parsePatterns, "pattern", "p", nil, "Path pattern (repeatable, adds to config)")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse [output.db]",
	Short: "Scan the configured directories and write the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		dirs := append(cfg.Directories, parseDirs...)
		patterns := append(cfg.Patterns, parsePatterns...)
		if len(dirs) == 0 || len(patterns) == 0 {
			return errors.New("need at least one directory and one pattern (config or flags)")
		}

		var cv *catalog.CVTable
		if cfg.CV != "" {
			if cv, err = catalog.LoadCVTableFile(cfg.CV); err != nil {
				return err
			}
		}

		groups := make([]ingest.GroupedRead, len(cfg.GroupedReads))
		for i, g := range cfg.GroupedReads {
			groups[i] = ingest.GroupedRead{GroupBy: g.GroupBy, Fields: g.Fields}
		}

		engine, err := ingest.New(osfs.New("/"), dirs, patterns, ingest.Options{
			ReadFromFile:     cfg.ReadFromFile,
			Groups:           groups,
			Homogenous:       cfg.Homogenous,
			CV:               cv,
			DirGlob:          cfg.DirGlob,
			CheckPerms:       cfg.CheckPerms,
			IDColumns:        cfg.IDColumns,
			AllowExtraFields: cfg.AllowExtraFields,
			Workers:          cfg.Workers,
			Logger:           logger,
		})
		if err != nil {
			return err
		}

		cat, err := engine.Run(cmd.Context())
		if err != nil {
			return err
		}
		if err := catalog.WriteSQLite(args[0], cat.Rows); err != nil {
			return err
		}
		logger.Info("catalog written",
			zap.String("path", args[0]), zap.Int("rows", len(cat.Rows)))
		fmt.Printf("Wrote %d rows to %s\n", len(cat.Rows), args[0])
		return nil
	},
}
