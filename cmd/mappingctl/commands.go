package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
)

func attributeType(raw string) (mapping.AttributeType, error) {
	typ, err := mapping.ParseAttributeType(raw)
	if err != nil {
		return 0, fmt.Errorf("--type: %w", err)
	}
	return typ, nil
}

func newImportCmd(opts *globalOptions) *cobra.Command {
	var doc, typ string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an attribute mapping document and save it",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := attributeType(typ)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(doc)
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}
			e, err := openEnv(opts, "")
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			scope := mapping.AttributeScope(t, e.master, e.target)
			summary, err := e.mapping.ImportAttributeMappings(ctx, scope, raw)
			if err != nil {
				if summary != nil && errors.Is(err, mapping.ErrNothingToImport) {
					_ = printJSON(cmd.OutOrStdout(), summary)
				}
				return err
			}
			out := map[string]any{"import": summary}
			if !dryRun {
				state, err := e.mapping.AttributeState(ctx, scope)
				if err != nil {
					return err
				}
				saved, err := e.mapping.SaveAttributeMappings(ctx, scope, nil, state.Revision)
				if err != nil {
					return err
				}
				out["save"] = saved
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&doc, "doc", "", "Mapping document JSON (required)")
	cmd.Flags().StringVar(&typ, "type", mapping.AttributeVariants.String(), "Attribute type: variants, filtering_parameters or flags")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report without saving")
	_ = cmd.MarkFlagRequired("doc")
	return cmd
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the saved attribute mapping with its source lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := attributeType(typ)
			if err != nil {
				return err
			}
			e, err := openEnv(opts, "")
			if err != nil {
				return err
			}
			defer e.Close()

			bundle, err := e.mapping.ExportAttributeMappings(cmd.Context(), mapping.AttributeScope(t, e.master, e.target))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), bundle)
		},
	}
	cmd.Flags().StringVar(&typ, "type", mapping.AttributeVariants.String(), "Attribute type: variants, filtering_parameters or flags")
	return cmd
}

func newValidateCmd(opts *globalOptions) *cobra.Command {
	var products string
	var offset, limit int
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check product default categories against the saved category mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts, products)
			if err != nil {
				return err
			}
			defer e.Close()

			page, err := e.mapping.ValidateDefaultCategories(cmd.Context(), mapping.CategoryScope(e.master, e.target), offset, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().StringVar(&products, "products", "", "Product snapshots JSON for the target shop (default: catalog products)")
	cmd.Flags().IntVar(&offset, "offset", 0, "First issue to print")
	cmd.Flags().IntVar(&limit, "limit", 0, "Issues to print (0 = all)")
	return cmd
}
