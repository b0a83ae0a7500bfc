package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// bucketCmd groups bucket commands
var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Manage storage buckets",
}

// bucketEnsureCmd builds the client of each bucket, creating missing buckets
var bucketEnsureCmd = &cobra.Command{
	Use:   "ensure [bucket...]",
	Short: "Create buckets that do not exist yet",
	Long:  `Resolves each bucket (default: the configured storage bucket), probes it and creates it when missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		buckets := args
		if len(buckets) == 0 {
			buckets = []string{rt.cfg.Storage.Bucket}
		}

		errs := make([]error, len(buckets))
		var g errgroup.Group
		g.SetLimit(4)
		for i, bucket := range buckets {
			i, bucket := i, bucket
			g.Go(func() error {
				_, errs[i] = rt.objects.Client(ctx, bucket)
				return nil
			})
		}
		_ = g.Wait()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BUCKET\tSTATUS")
		failed := 0
		for i, bucket := range buckets {
			if errs[i] != nil {
				failed++
				rt.logger.Error("Bucket ensure failed", zap.String("bucket", bucket), zap.Error(errs[i]))
				fmt.Fprintf(w, "%s\tfailed: %v\n", bucket, errs[i])
				continue
			}
			fmt.Fprintf(w, "%s\tready\n", bucket)
		}
		_ = w.Flush()

		if failed > 0 {
			return fmt.Errorf("%d of %d buckets failed", failed, len(buckets))
		}
		return nil
	},
}

func init() {
	bucketCmd.AddCommand(bucketEnsureCmd)
	RootCmd.AddCommand(bucketCmd)
}
