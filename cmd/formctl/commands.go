package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a3tai/assessment-forms/internal/service"
)

func fillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill <workbook.xlsx>...",
		Short: "Fill the forms of one or more workbooks",
		Long: "Each workbook is scored and written as one combined PDF to the output directory.\n" +
			"Paths are relative to --work-dir.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			archive, _ := cmd.Flags().GetBool("archive")
			result, err := svc.FillWorkbooks(cmd.Context(), service.FillRequest{Paths: args, Archive: archive})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if wantJSON(cmd) {
				if err := printJSON(out, result); err != nil {
					return err
				}
			} else {
				for _, path := range result.Outputs {
					fmt.Fprintf(out, "wrote %s\n", path)
				}
				for _, c := range result.Errors {
					for _, msg := range c.Messages() {
						fmt.Fprintf(out, "%s: %s\n", c.Dataset, msg)
					}
				}
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d workbook(s) failed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().Bool("archive", false, "Package all documents into "+service.ArchiveName)
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workbook.xlsx>",
		Short: "Check a workbook and print its scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			result, err := svc.ValidateWorkbook(service.ValidateRequest{Path: args[0]})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if wantJSON(cmd) {
				if err := printJSON(out, result); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "%s: %s\n", result.Path, result.Patient)
				for _, msg := range result.Errors.Messages() {
					fmt.Fprintf(out, "  error: %s\n", msg)
				}
				for _, score := range result.Scores {
					keys := make([]string, 0, len(score.Fields))
					for k := range score.Fields {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					fmt.Fprintf(out, "%s\n", score.Instrument)
					for _, k := range keys {
						fmt.Fprintf(out, "  %s = %s\n", k, score.Fields[k])
					}
				}
			}
			if !result.Valid {
				return fmt.Errorf("%s is not valid", args[0])
			}
			return nil
		},
	}
}

func instrumentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instruments",
		Short: "List supported instruments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			infos := svc.ListInstruments()
			out := cmd.OutOrStdout()
			if wantJSON(cmd) {
				return printJSON(out, infos)
			}
			for _, info := range infos {
				status := "ok"
				if !info.TemplateAvailable {
					status = "missing"
				}
				fmt.Fprintf(out, "%-11s %-20s %-8s %d keys\n", info.Name, info.Slug, status, len(info.Keys))
			}
			return nil
		},
	}
}

func fieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields <instrument>",
		Short: "List the form fields of an instrument's blank PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			result, err := svc.TemplateFields(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if wantJSON(cmd) {
				return printJSON(out, result)
			}
			fmt.Fprintf(out, "%s: %d page(s)\n", result.Instrument, result.Pages)
			for _, w := range result.Fields {
				fmt.Fprintf(out, "p%d\t%s\t%s\t[%.1f %.1f %.1f %.1f]\n",
					w.Page, w.Type, w.Name, w.Rect.LLX, w.Rect.LLY, w.Rect.URX, w.Rect.URY)
			}
			return nil
		},
	}
}

func workbookTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workbook-template",
		Short: "Write the blank input workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			target, _ := cmd.Flags().GetString("out")
			switch strings.TrimSpace(target) {
			case "":
				path, err := svc.SaveInputTemplate()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			case "-":
				return svc.WriteInputTemplate(cmd.OutOrStdout())
			default:
				f, err := os.Create(target)
				if err != nil {
					return err
				}
				if err := svc.WriteInputTemplate(f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			}
		},
	}
	cmd.Flags().StringP("out", "o", "", "Destination file, '-' for stdout (default: output directory)")
	return cmd
}
