package main

import (
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	formName     string
	formEmail    string
	formPassword string
	formConfirm  string
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the product catalogue",
	Args:  cobra.NoArgs,
	RunE:  runProducts,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the user in the state file",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a customer account",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the signed-in user (the cart is kept)",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order for the cart",
	Args:  cobra.NoArgs,
	RunE:  runCheckout,
}

func init() {
	loginCmd.Flags().StringVar(&formEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&formPassword, "password", "", "Account password")

	registerCmd.Flags().StringVar(&formName, "name", "", "Full name")
	registerCmd.Flags().StringVar(&formEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&formPassword, "password", "", "Password (at least 6 characters)")
	registerCmd.Flags().StringVar(&formConfirm, "confirm", "", "Password again")

	checkoutCmd.Flags().StringVar(&formName, "name", "", "Customer name (default: signed-in user)")
	checkoutCmd.Flags().StringVar(&formEmail, "email", "", "Customer email (default: signed-in user)")
}

func runProducts(cmd *cobra.Command, args []string) error {
	ui := newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr())
	cards, err := catalog.New(newBackend()).List(cmd.Context())
	if err != nil {
		log.Debug("list products failed", zap.Error(err))
		ui.Alert(catalog.ErrorMessage)
		return errShown
	}
	ui.printProducts(cards)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sc, err := openBrowser(ctx)
	if err != nil {
		return err
	}

	ui := newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr())
	a, err := auth.NewService(newBackend(), log).Login(ctx, sc, validation.LoginForm{Email: formEmail, Password: formPassword})
	if err != nil {
		ui.Alert(auth.Message(err))
		return errShown
	}

	ui.Notify(fmt.Sprintf("Signed in as %s", a.Name))
	if a.IsAdmin() {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Administrator: manage products with `storefront admin`"))
	}
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	ui := newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr())
	err := auth.NewService(newBackend(), log).Register(cmd.Context(), validation.RegisterForm{
		Name:            formName,
		Email:           formEmail,
		Password:        formPassword,
		ConfirmPassword: formConfirm,
	})
	if err != nil {
		ui.Alert(auth.Message(err))
		return errShown
	}
	ui.Notify("Account created successfully! Sign in with `storefront login`.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sc, err := openBrowser(ctx)
	if err != nil {
		return err
	}
	if err := auth.NewService(newBackend(), log).Logout(ctx, sc); err != nil {
		return err
	}
	newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr()).Notify("Signed out")
	return nil
}

func runCheckout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sc, err := openBrowser(ctx)
	if err != nil {
		return err
	}

	form := validation.CheckoutForm{Name: formName, Email: formEmail}
	if form.Name == "" {
		form.Name = sc.Auth.Name
	}
	if form.Email == "" {
		form.Email = sc.Auth.Email
	}

	btn := cart.NewButton(cart.CheckoutLabels, cart.SettleDelay, buttonLogger("checkout"))
	defer btn.Stop()

	ui := newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if _, err := cart.NewService(newBackend(), log).Checkout(ctx, sc, ui, form, btn); err != nil {
		return errShown
	}
	return nil
}
