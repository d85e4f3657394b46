package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/ironvirt/internal/image"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Manage base images",
	Long: `Manage base images in the content-addressed image repository.

Images are stored as <sha256>.qcow2 and used as backing files for
machine boot disks.`,
}

func init() {
	imageCmd.AddCommand(imageImportCmd)
	imageCmd.AddCommand(imageListCmd)
}

var imageImportCmd = &cobra.Command{
	Use:   "import <source-path> <sha256>",
	Short: "Import an image into the repository",
	Long: `Import a base image from a local file, verifying its SHA-256 digest.

The source may be a plain path or a file:// URL. Importing a digest that
is already stored does nothing.

Example:
  ironvirt image import /var/tmp/jammy.img 754129c5052756ee47a0c395e518bd3413f444dff69b98f8a8fa42f2fa3acc2d`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := image.NewRepository(hostCfg.ImageDir)
		if err != nil {
			return err
		}

		hex, err := repo.Import(cmd.Context(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to import image: %w", err)
		}

		fmt.Printf("✓ Image %s imported\n", hex)
		return nil
	},
}

var imageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List images in the repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		formatter, err := newFormatter()
		if err != nil {
			return err
		}

		repo, err := image.NewRepository(hostCfg.ImageDir)
		if err != nil {
			return err
		}

		infos, err := repo.Infos()
		if err != nil {
			return fmt.Errorf("failed to list images: %w", err)
		}

		result, err := formatter.FormatImages(infos)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Print(result)
		return nil
	},
}
