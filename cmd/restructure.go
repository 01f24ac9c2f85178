package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bstdenis/xscen/internal/builder"
	"github.com/bstdenis/xscen/internal/catalog"
	"github.com/bstdenis/xscen/internal/config"
)

var (
	restructureSchema   string
	restructureCategory string
)

func init() {
	restructureCmd.Flags().StringVarP(&restructureSchema, "schema", "s", "", "Path schema file or URL (default: built-in)")
	restructureCmd.Flags().StringVar(&restructureCategory, "category", "", "Schema category to render")
	rootCmd.AddCommand(restructureCmd)
}

var restructureCmd = &cobra.Command{
	Use:   "restructure [catalog.db]",
	Short: "Render standardized paths for every catalog row",
	Long: `Reads a catalog and prints, for each row, its current path and the
standardized path the schema assigns it, tab separated. The file extension
is carried over from the row's format. No files are moved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		schemaSource := cfg.Schema
		if restructureSchema != "" {
			schemaSource = restructureSchema
		}
		category := cfg.Category
		if restructureCategory != "" {
			category = restructureCategory
		}

		rows, err := catalog.ReadSQLite(args[0])
		if err != nil {
			return err
		}
		schema, err := builder.LoadSchema(schemaSource)
		if err != nil {
			return err
		}
		b := builder.New(schema, logger)

		for i := range rows {
			r := &rows[i]
			p, err := b.BuildPath(r, category)
			if err != nil {
				return err
			}
			if r.Format != "" {
				p += "." + r.Format
			}
			fmt.Printf("%s\t%s\n", r.Path, p)
		}
		logger.Info("restructure plan rendered",
			zap.Int("rows", len(rows)), zap.String("category", category))
		return nil
	},
}
