package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	formvalidator "github.com/goliatone/go-formvalidator"
	"github.com/goliatone/go-formvalidator/internal/config"
	"github.com/goliatone/go-formvalidator/internal/logging"
	"github.com/goliatone/go-formvalidator/internal/prompt"
	"github.com/goliatone/go-formvalidator/internal/source"
	"github.com/goliatone/go-formvalidator/pkg/dom"
)

const (
	exitValid   = 0
	exitInvalid = 1
	exitError   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, prompt.NewSurveyDriver()))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, driver prompt.Driver) int {
	cfg, err := config.LoadCLI(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	logger, err := logging.New(logging.Config{
		Level:    cfg.Logging.Level,
		Env:      cfg.Logging.Env,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer func() { _ = logger.Sync() }()

	report, page, err := validate(ctx, cfg, logger, driver)
	if err != nil {
		logger.Error("validation failed", zap.Error(err))
		fmt.Fprintln(stderr, err)
		return exitError
	}

	if err := write(cfg, stdout, report, page); err != nil {
		logger.Error("write output", zap.Error(err))
		fmt.Fprintln(stderr, err)
		return exitError
	}
	if !report.Valid {
		return exitInvalid
	}
	return exitValid
}

func validate(ctx context.Context, cfg *config.CLI, logger *zap.Logger, driver prompt.Driver) (formvalidator.Report, []byte, error) {
	bundle, err := source.New().Load(ctx, cfg.Source)
	if err != nil {
		return formvalidator.Report{}, nil, err
	}
	doc, err := dom.Parse(bytes.NewReader(bundle.Page))
	if err != nil {
		return formvalidator.Report{}, nil, err
	}
	v, err := formvalidator.New(doc, nil,
		formvalidator.WithRuleset(bundle.Rules),
		formvalidator.WithLogger(logger),
	)
	if err != nil {
		return formvalidator.Report{}, nil, err
	}

	report, err := v.Display()
	if err != nil {
		return report, nil, err
	}
	for cfg.Interactive && !report.Valid {
		if err := driver.Info(ctx, fmt.Sprintf("%d field(s) need attention", len(report.Errors()))); err != nil {
			return report, nil, err
		}
		if err := prompt.Fill(ctx, driver, doc, v.Registry().Fields(), prompt.Messages(report.Errors())); err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				break
			}
			return report, nil, err
		}
		if report, err = v.Display(); err != nil {
			return report, nil, err
		}
		if report.Valid {
			break
		}
		again, err := driver.Confirm(ctx, prompt.ConfirmConfig{Message: "Form is still invalid. Try again?", Default: true})
		if err != nil || !again {
			break
		}
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return report, nil, err
	}
	return report, buf.Bytes(), nil
}

func write(cfg *config.CLI, stdout io.Writer, report formvalidator.Report, page []byte) error {
	var out []byte
	switch cfg.Format {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		out = append(data, '\n')
	case "text":
		out = textReport(report)
	default:
		out = page
	}

	if cfg.Output == "" {
		_, err := stdout.Write(out)
		return err
	}
	if err := os.WriteFile(cfg.Output, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Output, err)
	}
	return nil
}

func textReport(report formvalidator.Report) []byte {
	var buf bytes.Buffer
	for _, field := range report.Fields {
		status := "ok"
		if !field.Valid {
			status = "invalid"
		}
		fmt.Fprintf(&buf, "%-8s %s", status, field.Name)
		if field.Message != "" {
			fmt.Fprintf(&buf, ": %s", field.Message)
		}
		buf.WriteByte('\n')
	}
	if report.Valid {
		buf.WriteString("form is valid\n")
	} else {
		buf.WriteString("form is invalid\n")
	}
	return buf.Bytes()
}
