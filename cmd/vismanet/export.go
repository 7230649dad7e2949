package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/martinberglund/Visma.Net/mirror/services"
	"github.com/martinberglund/Visma.Net/pkg/vismanet"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		out    string
		since  string
		status string
	)

	cmd := &cobra.Command{
		Use:   "export <resource>",
		Short: "Stream every record of a resource into a JSON file",
		Long: "Stream every record of a resource into a JSON array.\n\nResources: " +
			strings.Join(services.ResourceNames(), ", "),
		Example: `  vismanet export customer
  vismanet export customerinvoice --since 2024-01-01 --out -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource := args[0]
			if _, err := services.LookupResource(resource); err != nil {
				return err
			}

			filter := vismanet.Filter{Status: status}
			if since != "" {
				t, err := parseSince(since)
				if err != nil {
					return err
				}
				filter.LastModifiedDateTime = t
			}

			client, err := a.client()
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(a.cfg.ExportDir, resource+".json")
			}

			exporter := services.NewExportService(client, a.cfg.SyncPageSize, a.logger)
			var n int
			export := func(w io.Writer) error {
				var err error
				n, err = exporter.Export(cmd.Context(), resource, filter, w)
				return err
			}

			if out == "-" {
				return export(cmd.OutOrStdout())
			}
			if err := writeFileAtomic(out, export); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d %s records to %s\n", n, resource, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", `output file, "-" for stdout (default <EXPORT_DIR>/<resource>.json)`)
	cmd.Flags().StringVar(&since, "since", "", "only records modified after this date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&status, "status", "", "only records with this status")
	return cmd
}

// writeFileAtomic writes to a temporary file next to path and renames it into
// place once write succeeds. On failure nothing is left at path.
func writeFileAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = write(f); err != nil {
		return err
	}
	if err = f.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to set export file mode: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("failed to move export file into place: %w", err)
	}
	return nil
}

func parseSince(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --since %q, expected YYYY-MM-DD or RFC 3339", value)
}
