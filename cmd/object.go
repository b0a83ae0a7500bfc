package cmd

import (
	"context"
	"fmt"
	"os"

	"file-storage/feature/objects"

	"github.com/spf13/cobra"
)

var bucketFlag string
var publicFlag bool

// objectCmd groups object commands
var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Operate on objects in a bucket",
}

var objectPutCmd = &cobra.Command{
	Use:   "put <key> <file>",
	Short: "Upload a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObjects(cmd, func(ctx context.Context, svc *objects.Service, bucket string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[1], err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", args[1], err)
			}

			res, err := svc.Put(ctx, bucket, args[0], f, info.Size())
			if err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("put %s: %s", args[0], res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%d bytes) to %s\n", args[0], info.Size(), bucket)
			return nil
		})
	},
}

var objectExistsCmd = &cobra.Command{
	Use:   "exists <key>",
	Short: "Check whether an object exists",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObjects(cmd, func(ctx context.Context, svc *objects.Service, bucket string) error {
			ok, res, err := svc.ObjectExists(ctx, bucket, args[0])
			if err != nil {
				return err
			}
			if !ok && !res.NotFound() {
				return fmt.Errorf("exists %s: %s", args[0], res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		})
	},
}

var objectURLCmd = &cobra.Command{
	Use:   "url <key>",
	Short: "Print a temporary (presigned) or public URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObjects(cmd, func(ctx context.Context, svc *objects.Service, bucket string) error {
			kind := objects.URLTemporary
			if publicFlag {
				kind = objects.URLPublic
			}
			u, res, err := svc.URL(ctx, bucket, args[0], kind)
			if err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("url %s: %s", args[0], res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), u.String())
			return nil
		})
	},
}

var objectRmCmd = &cobra.Command{
	Use:   "rm <key>",
	Short: "Delete an object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObjects(cmd, func(ctx context.Context, svc *objects.Service, bucket string) error {
			res, err := svc.Delete(ctx, bucket, args[0])
			if err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("rm %s: %s", args[0], res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s from %s\n", args[0], bucket)
			return nil
		})
	},
}

// withObjects bootstraps the services and runs fn against the selected bucket.
func withObjects(cmd *cobra.Command, fn func(ctx context.Context, svc *objects.Service, bucket string) error) error {
	ctx := cmd.Context()
	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	bucket := bucketFlag
	if bucket == "" {
		bucket = rt.cfg.Storage.Bucket
	}
	return fn(ctx, rt.objects, bucket)
}

func init() {
	objectCmd.PersistentFlags().StringVar(&bucketFlag, "bucket", "", "Bucket to operate on (default: storage.bucket)")
	objectURLCmd.Flags().BoolVar(&publicFlag, "public", false, "Print the public URL instead of a presigned one")

	objectCmd.AddCommand(objectPutCmd, objectExistsCmd, objectURLCmd, objectRmCmd)
	RootCmd.AddCommand(objectCmd)
}
