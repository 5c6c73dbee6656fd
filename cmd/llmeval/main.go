//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Command llmeval evaluates paired chatbot responses from a CSV dataset and
// writes a comparative report.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	llmeval "github.com/tagmeagain/LLMEval"
	"github.com/tagmeagain/LLMEval/config"
	"github.com/tagmeagain/LLMEval/dataset"
	"github.com/tagmeagain/LLMEval/evalresult"
	"github.com/tagmeagain/LLMEval/log"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "llmeval",
		Short:         "LLM-judged comparison of paired chatbot responses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())
	return root
}

func newRunCommand() *cobra.Command {
	var (
		configPath string
		inputPath  string
		outputDir  string
		mode       string
		logLevel   string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate a CSV dataset and write the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetLevel(logLevel)
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.ReportDir = outputDir
			}
			if mode != "" {
				cfg.Mode = mode
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			ds, err := dataset.LoadCSV(inputPath)
			if err != nil {
				return err
			}
			evaluator, err := llmeval.New(cfg)
			if err != nil {
				return err
			}
			defer evaluator.Close()
			report, err := evaluator.Evaluate(cmd.Context(), ds)
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML run configuration")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the CSV dataset")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "report directory, overrides the config")
	cmd.Flags().StringVar(&mode, "mode", "", "force generate or pre_recorded instead of auto-detection")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.MarkFlagRequired("input")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		cfg.Judge = &config.ModelConfig{Model: os.Getenv("LLMEVAL_JUDGE_MODEL")}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("no config file and no usable defaults: %w", err)
		}
		return cfg, nil
	}
	return config.Load(path)
}

func printReport(cmd *cobra.Command, report *evalresult.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "report %s (mode %s, judge %s) in %s\n",
		report.ReportID, report.Mode, report.JudgeModel, report.Duration.Round(time.Millisecond))
	summary := report.Summary
	if summary != nil {
		fmt.Fprintf(out, "rows: %d total, %d evaluated, %d partial, %d failed, %d rejected\n",
			summary.TotalRows, summary.EvaluatedCases, summary.PartialFailures,
			summary.FailedCases, summary.ValidationErrors)
		for _, tally := range summary.Tallies {
			fmt.Fprintf(out, "  %-28s A wins %d, B wins %d, ties %d\n",
				tally.MetricName, tally.WinsA, tally.WinsB, tally.Ties)
		}
	}
	for _, ex := range report.ExcludedMetrics {
		fmt.Fprintf(out, "excluded metric %s: %s\n", ex.MetricName, ex.Reason)
	}
}
