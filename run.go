package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/agentflare-ai/pydocmd/internal/config"
	"github.com/agentflare-ai/pydocmd/internal/diag"
	"github.com/agentflare-ai/pydocmd/internal/generate"
	"github.com/agentflare-ai/pydocmd/internal/outpath"
	"github.com/agentflare-ai/pydocmd/internal/reflector"
	"github.com/agentflare-ai/pydocmd/internal/render"
)

type cliApp struct {
	stdout io.Writer
	stderr io.Writer
}

func run(argv []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(argv)
	return cmd.Execute()
}

func (app *cliApp) execute(ctx context.Context, flags *pflag.FlagSet, modules []string) error {
	cfg, err := config.Load(".", flags)
	if err != nil {
		return err
	}
	logger := setupLogger(app.stderr, cfg.LogLevel, cfg.LogFormat)
	if cfg.File != "" {
		logger.WithField("file", cfg.File).Debug("loaded configuration")
	}

	var w generate.Writer
	if cfg.OutputDir == "-" {
		w = &generate.StreamWriter{W: app.stdout}
	} else {
		w = &generate.DirWriter{Root: cfg.OutputDir, Overwrite: cfg.Overwrite}
	}

	var diags diag.List
	res, err := generate.Run(ctx, modules, generateOptions(cfg, logger), w, &diags)
	diags.Log(logger)
	if rerr := writeReport(cfg.Report, app.stdout, &diags); rerr != nil {
		if err == nil {
			return rerr
		}
		logger.WithError(rerr).Error("could not write diagnostics report")
	}
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"documents":   len(res.Documents),
		"diagnostics": diags.Len(),
		"output":      cfg.OutputDir,
	}).Info("documentation generated")
	return nil
}

func generateOptions(cfg *config.Config, logger *logrus.Logger) generate.Options {
	return generate.Options{
		Reflector: reflector.Options{
			SearchPath: cfg.SearchPath,
			Style:      cfg.Style,
			Jobs:       cfg.Jobs,
			Logger:     logger,
		},
		Paths: outpath.Options{
			ExcludeModuleName: cfg.ExcludeModuleName,
			InitFileName:      cfg.InitFileName,
		},
		Render: render.Options{
			AnchorExtend: cfg.AnchorExtend,
			IgnoreData:   cfg.IgnoreData,
			SortMembers:  cfg.SortMembers,
		},
		Index:  cfg.Index,
		Logger: logger,
	}
}

func setupLogger(w io.Writer, level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}

// writeReport writes the diagnostics as YAML to path, or to stdout for "-".
// An empty path writes nothing.
func writeReport(path string, stdout io.Writer, diags *diag.List) error {
	switch path {
	case "":
		return nil
	case "-":
		return diags.WriteReport(stdout)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create report directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create report")
	}
	if err := diags.WriteReport(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
