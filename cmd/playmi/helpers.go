package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"playmi/internal/catalog"
	"playmi/internal/config"
	"playmi/internal/logging"
	"playmi/internal/orchestrator"
	"playmi/internal/packaging"
	"playmi/internal/wifiqr"
)

// services bundles the opened stores behind one Close.
type services struct {
	cfg          *config.Config
	packages     *packaging.Store
	catalog      *catalog.Store
	orchestrator *orchestrator.Orchestrator
}

func openServices(ctx context.Context, cmdCtx *commandContext) (*services, func(), error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logging: %w", err)
	}

	pkgStore, err := packaging.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	catalogStore, err := catalog.Open(cfg)
	if err != nil {
		_ = pkgStore.Close()
		return nil, nil, err
	}

	svc := &services{
		cfg:          cfg,
		packages:     pkgStore,
		catalog:      catalogStore,
		orchestrator: orchestrator.New(ctx, pkgStore, catalogStore, cfg, logger),
	}
	cleanup := func() {
		_ = catalogStore.Close()
		_ = pkgStore.Close()
	}
	return svc, cleanup, nil
}

func openProvisioner(cmdCtx *commandContext) (*wifiqr.Provisioner, func(), error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logging: %w", err)
	}

	qrStore, err := wifiqr.OpenStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	catalogStore, err := catalog.Open(cfg)
	if err != nil {
		_ = qrStore.Close()
		return nil, nil, err
	}

	provisioner := wifiqr.NewProvisioner(catalogStore, qrStore, cfg, logger)
	cleanup := func() {
		_ = catalogStore.Close()
		_ = qrStore.Close()
	}
	return provisioner, cleanup, nil
}

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// colorize wraps s in the given ANSI color when writer is a terminal.
func colorize(writer io.Writer, color, s string) string {
	if !shouldColorize(writer) {
		return s
	}
	return color + s + ansiReset
}
