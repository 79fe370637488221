// Command invoice-export renders an invoice draft described in YAML to a
// PDF or XLSX file without starting the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/garyjia/invoice-studio/internal/application/service"
	"github.com/garyjia/invoice-studio/internal/config"
	"github.com/garyjia/invoice-studio/internal/container"
	"github.com/garyjia/invoice-studio/internal/domain/entity"
	"github.com/garyjia/invoice-studio/internal/export"
	"github.com/garyjia/invoice-studio/pkg/utils"
)

func main() {
	draftPath := flag.String("draft", "", "path to the invoice draft YAML (required)")
	outDir := flag.String("out", ".", "directory to write the file into")
	format := flag.String("format", entity.ExportFormatPDF, "output format: pdf or xlsx")
	configPath := flag.String("config", "", "optional YAML config file for export settings and defaults")
	timeout := flag.Duration("timeout", 2*time.Minute, "give up after this long")
	flag.Parse()

	if *draftPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     "console",
		Name:       "invoice-export",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	path, err := run(ctx, cfg.ToContainerConfig(), *draftPath, *outDir, *format, logger)
	switch {
	case errors.Is(err, export.ErrNothingToRender):
		logger.Info("Nothing to render, no file written")
		os.Exit(3)
	case err != nil:
		logger.Error("Export failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Println(path)
}

// readDraft loads an InvoiceData from YAML. Fields left out stay empty and
// the dates are backfilled when the draft is imported.
func readDraft(path string) (entity.InvoiceData, error) {
	var data entity.InvoiceData

	content, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("failed to read draft: %w", err)
	}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return data, fmt.Errorf("failed to parse draft: %w", err)
	}
	return data, nil
}

// run imports the draft into a throwaway session, exports it and writes the
// artifact into outDir. It returns the written path.
func run(ctx context.Context, cfg *container.Config, draftPath, outDir, format string, logger *zap.Logger) (string, error) {
	data, err := readDraft(draftPath)
	if err != nil {
		return "", err
	}
	if data.FreelancerDetails == (entity.FreelancerDetails{}) {
		data.FreelancerDetails = cfg.Invoice.Freelancer
	}

	cat, err := container.ProvideCatalog(&cfg.Catalog)
	if err != nil {
		return "", fmt.Errorf("failed to load catalog: %w", err)
	}

	store, err := container.ProvideSessionStore(&cfg.Session, &cfg.Invoice, cat, nil, logger)
	if err != nil {
		return "", err
	}

	exporter, err := container.ProvideExporter(&cfg.Export, logger)
	if err != nil {
		return "", err
	}

	svc, err := container.ProvideInvoiceService(&container.ServiceDeps{
		Sessions: store,
		Catalog:  cat,
		Exporter: exporter,
		Logger:   logger,
	})
	if err != nil {
		return "", err
	}

	state, err := svc.ImportSession(ctx, data)
	if err != nil {
		return "", err
	}
	for _, warning := range state.Warnings {
		logger.Warn("Draft warning", zap.String("warning", warning))
	}

	result, err := svc.Export(ctx, state.ID, format)
	if err != nil {
		return "", err
	}

	return writeArtifact(outDir, result)
}

func writeArtifact(outDir string, result *service.ExportResult) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(outDir, result.Artifact.FileName)
	if err := os.WriteFile(path, result.Artifact.Content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
