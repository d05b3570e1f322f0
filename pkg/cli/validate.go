package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/specmock/internal/matching"
	"github.com/getmockd/specmock/pkg/cli/internal/output"
	"github.com/getmockd/specmock/pkg/validation"
)

// ValidateOutput is the JSON output of the validate command.
type ValidateOutput struct {
	File        string            `json:"file"`
	Title       string            `json:"title"`
	Version     string            `json:"version"`
	OpenAPI     string            `json:"openapi"`
	Operations  []OperationOutput `json:"operations"`
	Ambiguities []string          `json:"ambiguities,omitempty"`
}

// OperationOutput describes one operation in command output.
type OperationOutput struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	OperationID string `json:"operationId,omitempty"`
}

func newValidateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <spec>",
		Short: "Check that an OpenAPI document can be served",
		Long: `Load and lint an OpenAPI document, compile its parameter and request body
schemas, and list the operations that would be served.

Example:
  specmock validate petstore.yaml
  specmock validate petstore.yaml --exclude '/admin/**' --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd, args)
		},
	}
	cmd.Flags().StringSlice("include", nil, "only check operations whose path matches one of these globs")
	cmd.Flags().StringSlice("exclude", nil, "skip operations whose path matches one of these globs")
	a.bind(cmd.Flags(), map[string]string{
		"spec.include": "include",
		"spec.exclude": "exclude",
	})
	return cmd
}

func (a *app) runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := a.config(args)
	if err != nil {
		return err
	}
	cfg.Spec.Strict = true

	doc, err := loadSpec(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if _, err := validation.New(doc, cfg.ValidationOptions()); err != nil {
		return err
	}
	resolver, err := matching.NewResolver(doc.Operations)
	if err != nil {
		return err
	}

	out := ValidateOutput{
		File:       cfg.Spec.File,
		Title:      doc.Title,
		Version:    doc.Version,
		OpenAPI:    doc.OpenAPI,
		Operations: make([]OperationOutput, 0, len(doc.Operations)),
	}
	for _, op := range doc.Operations {
		out.Operations = append(out.Operations, OperationOutput{Method: op.Method, Path: op.Path, OperationID: op.ID})
	}
	for _, amb := range resolver.Ambiguities() {
		out.Ambiguities = append(out.Ambiguities, amb.String())
	}

	w := cmd.OutOrStdout()
	if a.jsonOutput {
		return output.JSON(w, out)
	}

	fmt.Fprintf(w, "%s is valid: %s %s (OpenAPI %s), %d operations\n",
		out.File, out.Title, out.Version, out.OpenAPI, len(out.Operations))
	tw := output.Table(w)
	for _, op := range out.Operations {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", op.Method, op.Path, op.OperationID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, amb := range out.Ambiguities {
		output.Warn(cmd.ErrOrStderr(), "ambiguous templates, first declared wins: %s", amb)
	}
	return nil
}
