package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newGetCmd(a *app) *cobra.Command {
	var (
		query  []string
		pretty bool
		stream bool
	)

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "GET an endpoint and print the JSON response",
		Example: `  vismanet get customer/10001
  vismanet get customerinvoice --query status=Open --query pageSize=50
  vismanet get inventory --stream > inventory.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseQuery(query)
			if err != nil {
				return err
			}

			client, err := a.client()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			path := args[0]

			if stream {
				body, err := client.OpenStream(ctx, path, params)
				if err != nil {
					return err
				}
				defer body.Close()
				n, err := io.Copy(out, body)
				a.logger.Debug("Streamed response", zap.String("path", path), zap.Int64("bytes", n))
				return err
			}

			resp, err := client.Send(ctx, http.MethodGet, path, params, nil)
			if err != nil {
				return err
			}
			return writeBody(out, resp.Body, pretty)
		},
	}

	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "indent the JSON response")
	cmd.Flags().BoolVar(&stream, "stream", false, "copy the response body as it arrives without buffering")
	return cmd
}

func parseQuery(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q, expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}

func writeBody(w io.Writer, body []byte, pretty bool) error {
	if pretty && json.Valid(body) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			body = buf.Bytes()
		}
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if len(body) > 0 && body[len(body)-1] != '\n' {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
