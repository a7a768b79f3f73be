package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/validation"
	"github.com/spf13/cobra"
)

var productForm struct {
	validation.ProductForm
	imageFile string
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage products (administrators only)",
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	Args:  cobra.NoArgs,
	RunE:  runAdminList,
}

var adminSaveCmd = &cobra.Command{
	Use:   "save [product-id]",
	Short: "Create a product, or update it when an id is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAdminSave,
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete <product-id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminDelete,
}

func init() {
	f := adminSaveCmd.Flags()
	f.StringVar(&productForm.Name, "name", "", "Product name")
	f.StringVar(&productForm.Description, "description", "", "Description")
	f.Float64Var(&productForm.Price, "price", 0, "Price")
	f.IntVar(&productForm.Stock, "stock", 0, "Units in stock")
	f.StringVar(&productForm.Category, "category", "", "Category")
	f.StringVar(&productForm.ImageURL, "image-url", "", "Image URL")
	f.StringVar(&productForm.imageFile, "image-file", "", "Upload this image file instead of --image-url")

	adminCmd.AddCommand(adminListCmd)
	adminCmd.AddCommand(adminSaveCmd)
	adminCmd.AddCommand(adminDeleteCmd)
}

func runAdminList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sc, err := openBrowser(ctx)
	if err != nil {
		return err
	}

	ui := newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr())
	products, err := admin.NewService(newBackend(), log).Products(ctx, sc)
	if err != nil {
		ui.Alert(adminError(err, admin.ListErrorMessage))
		return errShown
	}
	ui.printAdminProducts(products)
	return nil
}

func runAdminSave(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sc, err := openBrowser(ctx)
	if err != nil {
		return err
	}

	var image *backend.Image
	if productForm.imageFile != "" {
		data, err := os.ReadFile(productForm.imageFile)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		image = &backend.Image{Filename: filepath.Base(productForm.imageFile), Data: data}
	}

	id := ""
	if len(args) == 1 {
		id = args[0]
	}

	ui := newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err := admin.NewService(newBackend(), log).Save(ctx, sc, id, productForm.ProductForm, image); err != nil {
		ui.Alert(adminError(err, admin.SaveFallback))
		return errShown
	}
	if id == "" {
		ui.Notify("Product created")
	} else {
		ui.Notify("Product updated")
	}
	return nil
}

func runAdminDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sc, err := openBrowser(ctx)
	if err != nil {
		return err
	}

	ui := newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err := admin.NewService(newBackend(), log).Delete(ctx, sc, args[0]); err != nil {
		ui.Alert(adminError(err, admin.DeleteFallback))
		return errShown
	}
	ui.Notify("Product deleted")
	return nil
}

func adminError(err error, fallback string) string {
	if errors.Is(err, admin.ErrUnauthorized) {
		return "Please sign in as an administrator with `storefront login`."
	}
	return domain.Describe(err, fallback)
}
