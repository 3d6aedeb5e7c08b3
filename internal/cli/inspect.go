package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nmussy/cdk-sdk-versions/internal/declaration"
	"github.com/nmussy/cdk-sdk-versions/internal/logging"
	"github.com/nmussy/cdk-sdk-versions/internal/report"
)

var (
	enumsFlag         bool
	allCommentsFlag   bool
	inspectFormatFlag string
	strictFlag        bool
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the facts extracted from a declaration file",
	Long: `Inspect parses a TypeScript declaration file and prints what the runners
see: the static readonly fields of its classes (default), the string
members of its enums (--enums), or the doc comment of every declaration
(--all-comments), each with its deprecation status.

Examples:
  cdk-sdk-versions inspect node_modules/aws-cdk-lib/aws-rds/lib/instance-engine.d.ts
  cdk-sdk-versions inspect node_modules/aws-cdk-lib/aws-ec2/lib/windows-versions.d.ts --enums
`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&enumsFlag, "enums", false, "Extract enum members instead of static fields")
	inspectCmd.Flags().BoolVar(&allCommentsFlag, "all-comments", false, "List the doc comment of every declaration")
	inspectCmd.Flags().StringVarP(&inspectFormatFlag, "format", "f", string(report.FormatText), "Output format (text|yaml)")
	inspectCmd.Flags().BoolVar(&strictFlag, "strict", false, "Fail on syntax errors")
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx, _ := logging.Setup(cmd.Context(), logging.Options{Writer: cmd.ErrOrStderr(), Verbose: verbose})

	format, err := report.ParseFormat(inspectFormatFlag)
	if err != nil {
		return err
	}

	return inspect(ctx, cmd.OutOrStdout(), args[0], inspectOptions{
		enums:       enumsFlag,
		allComments: allCommentsFlag,
		format:      format,
		parse:       declaration.ParseOptions{Strict: strictFlag},
	})
}

type inspectOptions struct {
	enums       bool
	allComments bool
	format      report.Format
	parse       declaration.ParseOptions
}

func inspect(ctx context.Context, w io.Writer, path string, opts inspectOptions) error {
	var (
		facts any
		lines []string
	)

	switch {
	case opts.allComments:
		comments, err := declaration.ExtractDocComments(ctx, path, opts.parse)
		if err != nil {
			return err
		}
		facts = comments
		for _, c := range comments {
			lines = append(lines, fmt.Sprintf("%d: %s %s%s", c.Line, c.Kind, c.Name, deprecationSuffix(c.IsDeprecated)))
		}

	case opts.enums:
		members, err := declaration.ExtractEnumMembers(ctx, path, opts.parse)
		if err != nil {
			return err
		}
		facts = members
		for _, m := range members {
			lines = append(lines, fmt.Sprintf("%s.%s = %q%s", m.EnumName, m.MemberName, m.MemberValue, deprecationSuffix(m.IsDeprecated)))
		}

	default:
		fields, err := declaration.ExtractStaticFields(ctx, path, opts.parse)
		if err != nil {
			return err
		}
		facts = fields
		for _, f := range fields {
			lines = append(lines, fmt.Sprintf("%s.%s: %s%s", f.ClassName, f.FieldName, f.FieldValue, deprecationSuffix(f.IsDeprecated)))
		}
	}

	if opts.format == report.FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(facts); err != nil {
			return err
		}
		return enc.Close()
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func deprecationSuffix(deprecated bool) string {
	if deprecated {
		return " @deprecated"
	}
	return ""
}
