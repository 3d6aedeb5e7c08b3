package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nmussy/cdk-sdk-versions/internal/provider"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the runners and their groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRunners(cmd.OutOrStdout(), provider.NewRegistry(provider.Deps{}))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listRunners(w io.Writer, registry *provider.Registry) error {
	var b strings.Builder
	b.WriteString("Runners:\n")
	for _, name := range registry.Names() {
		fmt.Fprintf(&b, "  %s\n", name)
	}

	b.WriteString("\nGroups:\n")
	for _, group := range provider.Groups {
		fmt.Fprintf(&b, "  %-12s %s\n", group, strings.Join(registry.Group(group), ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
