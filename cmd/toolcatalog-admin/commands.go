package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tendant/tool-catalog/pkg/toolcatalog/admin"
)

type runner func(cmd *cobra.Command, fn func(ctx context.Context, svc admin.AdminService, out *printer) error) error

// errVerifyFailed makes verify exit non-zero when problems were found
var errVerifyFailed = errors.New("verification found problems")

// NewListCommand creates the list command
func NewListCommand(run runner) *cobra.Command {
	var req admin.ListToolsRequest

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tools, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc admin.AdminService, out *printer) error {
				resp, err := svc.ListTools(ctx, req)
				if err != nil {
					return fmt.Errorf("failed to list tools: %w", err)
				}
				if out.json {
					return out.JSON(resp)
				}

				tw := out.table()
				fmt.Fprintln(tw, "ID\tNAME\tAUTHOR\tCATEGORY\tFILE\tSIZE\tDOWNLOADS\tUPLOADED")
				for _, t := range resp.Tools {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
						t.ID, t.Name, t.Author, t.Category, t.OriginalName, t.FileSize, t.DownloadCount,
						t.UploadedAt.Format("2006-01-02 15:04:05"))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out.w, "\nShowing %d of %d (offset %d)\n", len(resp.Tools), resp.TotalCount, resp.Offset)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Category, "category", "", "exact category filter")
	cmd.Flags().IntVar(&req.Limit, "limit", admin.DefaultListLimit, "maximum results")
	cmd.Flags().IntVar(&req.Offset, "offset", 0, "pagination offset")

	return cmd
}

// NewStatsCommand creates the stats command
func NewStatsCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog totals and a per-category breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc admin.AdminService, out *printer) error {
				resp, err := svc.GetStatistics(ctx)
				if err != nil {
					return fmt.Errorf("failed to get statistics: %w", err)
				}
				if out.json {
					return out.JSON(resp)
				}

				stats := resp.Statistics
				fmt.Fprintf(out.w, "Total tools:     %d\n", stats.TotalTools)
				fmt.Fprintf(out.w, "Total downloads: %d\n", stats.TotalDownloads)
				fmt.Fprintf(out.w, "Total bytes:     %d\n\n", stats.TotalBytes)

				categories := make([]string, 0, len(stats.ByCategory))
				for c := range stats.ByCategory {
					categories = append(categories, c)
				}
				sort.Strings(categories)

				tw := out.table()
				fmt.Fprintln(tw, "CATEGORY\tTOOLS\tDOWNLOADS\tBYTES")
				for _, c := range categories {
					s := stats.ByCategory[c]
					fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", c, s.Tools, s.Downloads, s.Bytes)
				}
				return tw.Flush()
			})
		},
	}
}

// NewVerifyCommand creates the verify command
func NewVerifyCommand(run runner) *cobra.Command {
	var req admin.VerifyRequest

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check every catalog entry against the blob store",
		Long: `Check that every catalog entry has a stored blob whose size matches the
recorded file size. Exits non-zero when any entry is missing or mismatched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc admin.AdminService, out *printer) error {
				resp, err := svc.Verify(ctx, req)
				if err != nil {
					return fmt.Errorf("failed to verify: %w", err)
				}
				if out.json {
					if err := out.JSON(resp); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(out.w, "Checked %d tools in %s\n", resp.Checked, resp.FinishedAt.Sub(resp.StartedAt).Round(time.Millisecond))
					if len(resp.Problems) > 0 {
						tw := out.table()
						fmt.Fprintln(tw, "ID\tNAME\tKIND\tEXPECTED\tACTUAL\tDETAIL")
						for _, p := range resp.Problems {
							fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n", p.ToolID, p.Name, p.Kind, p.ExpectedSize, p.ActualSize, p.Detail)
						}
						if err := tw.Flush(); err != nil {
							return err
						}
					}
				}
				if !resp.OK() {
					return fmt.Errorf("%w: %d of %d entries", errVerifyFailed, len(resp.Problems), resp.Checked)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Category, "category", "", "only verify one category")
	cmd.Flags().IntVar(&req.Concurrency, "concurrency", admin.DefaultVerifyConcurrency, "parallel blob checks")

	return cmd
}

type printer struct {
	w    io.Writer
	json bool
}

func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
}
