package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/kontorlabs/kontor/pkg/validation"
)

// callCmd issues a raw request against the platform API with the stored
// session. It exists for endpoints the CLI has no dedicated command for.
func callCmd(app *appEnv) *cobra.Command {
	var method string
	var rawFlag bool

	cmd := &cobra.Command{
		Use:   "call [path] [field...]",
		Short: "Call a platform API endpoint directly",
		Long: "Call a platform API endpoint with the stored session.\n" +
			"Body fields are given as key=value for JSON strings and key:=value for raw JSON values,\n" +
			"for example: kontor call /documents -X POST kind=invoice total:=129.90",
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := args[0]
			if err := validation.ValidateHTTPMethod(method); err != nil {
				cmd.PrintErrln("Error:", err)
				return
			}

			payload, err := buildPayload(args[1:])
			if err != nil {
				cmd.PrintErrln("Error:", err)
				return
			}

			body, err := app.api.Call(cmd.Context(), strings.ToUpper(method), path, payload)
			if err != nil {
				cmd.PrintErrln("Error:", err)
				return
			}
			if len(body) == 0 {
				return
			}

			cmd.Println(renderBody(body, rawFlag))
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method to use [GET, POST, PUT, PATCH, DELETE]")
	cmd.Flags().BoolVarP(&rawFlag, "raw", "r", false, "Print the response body without formatting? [true, false]")

	return cmd
}

// buildPayload assembles a JSON object from field arguments. key=value sets
// a string; key:=value sets a raw JSON value (numbers, booleans, arrays,
// objects). No fields means no request body.
func buildPayload(fields []string) ([]byte, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	body := []byte(`{}`)
	for _, field := range fields {
		if key, value, ok := strings.Cut(field, ":="); ok && !strings.Contains(key, "=") {
			if !gjson.Valid(value) {
				return nil, fmt.Errorf("field %q is not valid JSON", field)
			}
			var err error
			body, err = sjson.SetRawBytes(body, key, []byte(value))
			if err != nil {
				return nil, fmt.Errorf("failed to set field %q: %w", field, err)
			}
			continue
		}

		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("field %q must look like key=value or key:=value", field)
		}
		var err error
		body, err = sjson.SetBytes(body, key, value)
		if err != nil {
			return nil, fmt.Errorf("failed to set field %q: %w", field, err)
		}
	}
	return body, nil
}

// renderBody pretty-prints JSON responses unless asked not to. Non-JSON
// bodies pass through untouched.
func renderBody(body []byte, raw bool) string {
	if raw || !gjson.ValidBytes(body) {
		return string(body)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return string(body)
	}
	return pretty.String()
}
