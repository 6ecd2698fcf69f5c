package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/whit3rabbit/phptestgen/internal/analysis"
)

var factsFormat string

// factsCmd dumps what the analyser extracts from a single file.
var factsCmd = &cobra.Command{
	Use:   "facts <file.php>",
	Short: "Print the classes, functions, requires and namespace found in a PHP file",
	Long: `Analyses one PHP file and prints the extracted facts as YAML or JSON.
Useful for checking what a generated skeleton will be based on.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		switch strings.ToLower(factsFormat) {
		case "yaml", "json":
			return nil
		}
		return fmt.Errorf("invalid --format %q: must be yaml or json", factsFormat)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		file, err := analysis.AnalyzeFile(args[0])
		if err != nil {
			return err
		}
		if cfg != nil && cfg.ValidateSyntax {
			if _, err := analysis.Validate(file.Source(), cfg.ParserMode); err != nil {
				logger.Warn("file does not parse, facts may be incomplete", "path", args[0], "error", err)
			}
		}
		return writeFacts(cmd.OutOrStdout(), file.Facts(), factsFormat)
	},
}

func writeFacts(w io.Writer, facts *analysis.Facts, format string) error {
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(facts); err != nil {
			return fmt.Errorf("error encoding facts: %w", err)
		}
		return nil
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(facts); err != nil {
		return fmt.Errorf("error encoding facts: %w", err)
	}
	return enc.Close()
}

func init() {
	factsCmd.Flags().StringVarP(&factsFormat, "format", "f", "yaml", "Output format: yaml or json")
}
