package cli

import (
	"fmt"
	"mime"
	"sort"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/getmockd/specmock/pkg/cli/internal/output"
	"github.com/getmockd/specmock/pkg/config"
	"github.com/getmockd/specmock/pkg/engine"
	"github.com/getmockd/specmock/pkg/generator"
	"github.com/getmockd/specmock/pkg/validation"
)

// GenerateOutput is the JSON output of the generate command.
type GenerateOutput struct {
	Operation   string            `json:"operation"`
	Status      int               `json:"status"`
	ContentType string            `json:"contentType,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        string            `json:"body"`
}

func newGenerateCommand(a *app) *cobra.Command {
	var (
		operation   string
		selectPath  string
		accept      string
		showHeaders bool
	)

	cmd := &cobra.Command{
		Use:   "generate <spec>",
		Short: "Print the mock response of one operation",
		Long: `Print the response specmock would send for one operation.

The operation is given by operationId or as "METHOD /path". --select applies
a JSONPath expression to a JSON body and prints the matches.

Example:
  specmock generate petstore.yaml --operation listPets
  specmock generate petstore.yaml -o "GET /pets/{petId}" --select '$.name'
  specmock generate petstore.yaml -o listPets --accept application/yaml --seed 7`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config(args)
			if err != nil {
				return err
			}
			return a.runGenerate(cmd, cfg, operation, selectPath, accept, showHeaders)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&operation, "operation", "o", "", `operationId or "METHOD /path" (required)`)
	f.StringVar(&selectPath, "select", "", "JSONPath applied to a JSON body, e.g. $.items[0].id")
	f.StringVar(&accept, "accept", "", "Accept header used to pick the content type")
	f.BoolVarP(&showHeaders, "show-headers", "i", false, "print the status line and headers before the body")
	_ = cmd.MarkFlagRequired("operation")
	addGeneratorFlags(cmd, config.Default())
	a.bind(f, generatorFlagKeys)
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, cfg *config.Config, operation, selectPath, accept string, showHeaders bool) error {
	ctx := cmd.Context()

	var expr jp.Expr
	if selectPath != "" {
		var err error
		if expr, err = jp.ParseString(selectPath); err != nil {
			return fmt.Errorf("invalid --select expression %q: %w", selectPath, err)
		}
	}

	doc, err := loadSpec(ctx, cfg)
	if err != nil {
		return err
	}
	op := doc.FindOperation(operation)
	if op == nil {
		return fmt.Errorf("operation %q not found", operation)
	}

	gen, err := generator.New(doc, cfg.GeneratorOptions())
	if err != nil {
		return err
	}
	resp, err := engine.NewSynthesizer(gen).Synthesize(ctx, op, accept)
	if err != nil {
		return err
	}

	body := resp.Body
	if expr != nil {
		if body, err = selectJSON(expr, resp.ContentType, body); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if a.jsonOutput {
		out := GenerateOutput{
			Operation:   op.Key(),
			Status:      resp.Status,
			ContentType: resp.ContentType,
			Body:        string(body),
		}
		if len(resp.Header) > 0 {
			out.Headers = make(map[string]string, len(resp.Header))
			for name := range resp.Header {
				out.Headers[name] = resp.Header.Get(name)
			}
		}
		return output.JSON(w, out)
	}

	if showHeaders {
		fmt.Fprintf(w, "HTTP %d\n", resp.Status)
		if resp.ContentType != "" {
			fmt.Fprintf(w, "Content-Type: %s\n", resp.ContentType)
		}
		names := make([]string, 0, len(resp.Header))
		for name := range resp.Header {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s: %s\n", name, resp.Header.Get(name))
		}
		fmt.Fprintln(w)
	}
	if len(body) > 0 {
		fmt.Fprintln(w, string(body))
	}
	return nil
}

// selectJSON evaluates expr over a JSON body. A single match is printed on
// its own, several as an array.
func selectJSON(expr jp.Expr, contentType string, body []byte) ([]byte, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || !validation.IsJSON(mt) {
		return nil, fmt.Errorf("--select needs a JSON response, got %q", contentType)
	}
	data, err := oj.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse response body: %w", err)
	}

	matches := expr.Get(data)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("--select %s matched nothing", expr.String())
	case 1:
		return []byte(oj.JSON(matches[0], &oj.Options{Sort: true})), nil
	default:
		return []byte(oj.JSON(matches, &oj.Options{Sort: true})), nil
	}
}
