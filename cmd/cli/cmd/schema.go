package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schemas for the stdin and stdout payloads",
	Long: `Prints the JSON schema of the tool-use payload read on stdin and
of both decision output shapes, for integrators wiring the gatekeeper
into their own tooling.`,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	reflector := &jsonschema.Reflector{DoNotReference: true}

	shapes := []struct {
		name  string
		value any
	}{
		{"input (stdin)", &HookInput{}},
		{"output (stdout)", &HookOutput{}},
		{"output with --plain (stdout)", &DecisionPayload{}},
	}
	for _, shape := range shapes {
		schema := reflector.Reflect(shape.value)
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "// %s\n%s\n", shape.name, data)
	}
	return nil
}
