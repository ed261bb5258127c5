package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gotrs-io/configurator-e2e/internal/scenario"
	"github.com/gotrs-io/configurator-e2e/internal/suites"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Check suite files against the schema",
	Long: `Validate parses every file, checks it against the suite JSON schema and
the step rules, and reports each problem. With --schema it prints the schema.`,
	RunE: runValidate,
}

var schemaFlag bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the embedded suites and their scenarios",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	validateCmd.Flags().BoolVar(&schemaFlag, "schema", false, "Print the suite JSON schema and exit")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if schemaFlag {
		raw, err := scenario.SchemaJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(raw))
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("no suite file given")
	}

	invalid := 0
	for _, path := range args {
		suite, err := scenario.LoadFile(path)
		if err != nil {
			invalid++
			fmt.Fprintf(out, "FAIL  %s\n", path)
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(out, "      %s\n", line)
			}
			continue
		}
		fmt.Fprintf(out, "ok    %s (%s, %d scenarios)\n", path, suite.Name, len(suite.Scenarios))
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d suite files are invalid", invalid, len(args))
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, name := range suites.Names() {
		suite, err := suites.Load(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", suite.Name, suite.Description)
		for _, sc := range suite.Scenarios {
			tags := ""
			if len(sc.Tags) > 0 {
				tags = " [" + strings.Join(sc.Tags, ", ") + "]"
			}
			fmt.Fprintf(out, "  - %s%s\n", sc.Name, tags)
		}
	}
	return nil
}
