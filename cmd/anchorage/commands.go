package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/anchorage/pdfpage"
	"github.com/hazyhaar/anchorage/service"
	"github.com/hazyhaar/anchorage/snapshot"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput reads a file, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [request.json]",
		Short: "Create an annotation target from an interaction (JSON on stdin or in a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			var req service.CreateRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("create: decode request: %w", err)
			}

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ann, err := a.svc.CreateTarget(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ann)
		},
	}
}

func resolveCmd() *cobra.Command {
	var htmlPath, pageURL string
	var noRepair bool
	cmd := &cobra.Command{
		Use:   "resolve <annotation-id>",
		Short: "Resolve an annotation against a snapshot (--html) or a live page (--url)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			req := service.ResolveRequest{
				AnnotationID:   args[0],
				URL:            pageURL,
				ResolveOptions: service.ResolveOptions{NoRepair: noRepair},
			}
			if htmlPath != "" {
				data, err := os.ReadFile(htmlPath)
				if err != nil {
					return err
				}
				req.HTML = string(data)
			}

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.Resolve(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&htmlPath, "html", "", "HTML snapshot file")
	cmd.Flags().StringVar(&pageURL, "url", "", "live page URL, opened in Chrome")
	cmd.Flags().BoolVar(&noRepair, "no-repair", false, "do not store repaired locators")
	cmd.MarkFlagsMutuallyExclusive("html", "url")
	return cmd
}

func injectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inject [page.html]",
		Short: "Sanitize HTML and add data-anchor-id to every body element",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			out, n, err := snapshot.Prepare(string(data), nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "injected %d anchor ids\n", n)
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func pdfDimsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pdf-dims <file.pdf>",
		Short: "Print the page sizes of a PDF, the design sizes of its pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sizes, err := pdfpage.PageSizesFile(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sizes)
		},
	}
}
