package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"salesrecon/internal/config"
	"salesrecon/internal/importer"
	"salesrecon/internal/logger"
	"salesrecon/internal/model"
	"salesrecon/internal/service/excel"
	"salesrecon/internal/store"
)

type runOptions struct {
	sales         string
	productMaster string
	inventory     string
	returns       string
	outputDir     string

	inventoryHeaderRow int
	returnsSheet       string
	encoding           string
	brandSubtotals     bool
	fuzzy              int
	runLog             bool
	verbose            bool
}

func newRunCmd() *cobra.Command {
	cfg, _, err := config.LoadConfigWithInfo()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	opts := runOptions{
		inventoryHeaderRow: cfg.Inputs.InventoryHeaderRow,
		returnsSheet:       cfg.Inputs.ReturnsSheet,
		encoding:           cfg.Inputs.Encoding,
		brandSubtotals:     cfg.Recon.BrandSubtotals,
		fuzzy:              cfg.Match.FuzzyMaxDistance,
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one reconciliation over four local files and write the xlsx outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.sales, "sales", "", "Sales report (csv/xlsx, required)")
	cmd.Flags().StringVar(&opts.productMaster, "product-master", "", "Product master (csv/xlsx, required)")
	cmd.Flags().StringVar(&opts.inventory, "inventory", "", "Inventory listing (csv/xlsx, required)")
	cmd.Flags().StringVar(&opts.returns, "returns", "", "Returns report (csv/xlsx, required)")
	cmd.Flags().StringVar(&opts.outputDir, "output", "", "Output directory (default: <data dir>/exports)")
	cmd.Flags().IntVar(&opts.inventoryHeaderRow, "inventory-header-row", opts.inventoryHeaderRow, "0-based header row of the inventory file")
	cmd.Flags().StringVar(&opts.returnsSheet, "returns-sheet", opts.returnsSheet, "Preferred worksheet of the returns workbook")
	cmd.Flags().StringVar(&opts.encoding, "encoding", opts.encoding, "CSV encoding: utf-8, windows-1252, iso-8859-1")
	cmd.Flags().BoolVar(&opts.brandSubtotals, "brand-subtotals", opts.brandSubtotals, "Emit per-brand subtotal rows")
	cmd.Flags().IntVar(&opts.fuzzy, "fuzzy", opts.fuzzy, "Max edit distance for approximate header matches (0 = off)")
	cmd.Flags().BoolVar(&opts.runLog, "run-log", false, "Record the run in the SQLite run log")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print progress events")

	for _, f := range []string{"sales", "product-master", "inventory", "returns"} {
		_ = cmd.MarkFlagRequired(f)
	}

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if opts.inventoryHeaderRow < 0 {
			return withCode(exitUsage, fmt.Errorf("invalid --inventory-header-row: %d", opts.inventoryHeaderRow))
		}
		for _, p := range []string{opts.sales, opts.productMaster, opts.inventory, opts.returns} {
			if _, err := os.Stat(p); err != nil {
				return withCode(exitUsage, fmt.Errorf("input %s: %w", p, err))
			}
		}
		return nil
	}

	return cmd
}

func runBatch(ctx context.Context, cmd *cobra.Command, cfg *config.AppConfig, opts runOptions) error {
	zl, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("prepare data directory: %w", err)
	}
	outDir := opts.outputDir
	if outDir == "" {
		outDir = filepath.Join(dataDir, "exports")
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var st *store.Store
	if opts.runLog {
		st, err = store.New(filepath.Join(dataDir, "recon.db"))
		if err != nil {
			return err
		}
		defer st.Close()
	}

	out := cmd.OutOrStdout()
	coordinator := importer.NewCoordinator(st, zl)
	report, err := coordinator.RunSync(ctx, importer.RunOptions{
		Sales:         importer.FileSource(opts.sales),
		ProductMaster: importer.FileSource(opts.productMaster),
		Inventory:     importer.FileSource(opts.inventory),
		Returns:       importer.FileSource(opts.returns),
		Inputs: importer.InputOptions{
			InventoryHeaderRow: opts.inventoryHeaderRow,
			ReturnsSheet:       opts.returnsSheet,
			Encoding:           opts.encoding,
		},
		FuzzyMaxDistance: opts.fuzzy,
		BrandSubtotals:   opts.brandSubtotals,
	}, func(evt importer.ProgressEvent) {
		switch {
		case evt.Type == importer.EventWarning:
			fmt.Fprintf(out, "warning: %s\n", evt.Message)
		case opts.verbose:
			fmt.Fprintf(out, "[%s] %s\n", evt.Type, evt.Message)
		}
	})
	if err != nil {
		return err
	}

	for _, name := range model.TableNames {
		t, ok := report.Result.Table(name)
		if !ok {
			continue
		}
		path := filepath.Join(outDir, model.ExportFilename(name))
		if err := excel.SaveTable(path, t); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(out, "%-36s %5d rows  %s\n", model.ExportFilename(name), len(t.Rows), path)
	}

	zl.Info("batch run finished", zap.String("run_id", report.RunID), zap.String("output", outDir))
	fmt.Fprintf(out, "run %s done, %d warning(s)\n", report.RunID, len(report.Warnings))
	return nil
}
