package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/spf13/cobra"
)

var badgeWatch time.Duration

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and change the cart",
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart with totals",
	Args:  cobra.NoArgs,
	RunE:  runCartShow,
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add one unit of a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartAdd,
}

var cartSetCmd = &cobra.Command{
	Use:   "set <item-id> <quantity>",
	Short: "Set an item's quantity (0 removes it)",
	Args:  cobra.ExactArgs(2),
	RunE:  runCartSet,
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <item-id>",
	Short: "Remove an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartRemove,
}

var cartBadgeCmd = &cobra.Command{
	Use:   "badge",
	Short: "Print the cart badge count",
	Args:  cobra.NoArgs,
	RunE:  runCartBadge,
}

func init() {
	cartBadgeCmd.Flags().DurationVar(&badgeWatch, "watch", 0, "Keep refreshing at this interval until interrupted")

	cartCmd.AddCommand(cartShowCmd)
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartSetCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartBadgeCmd)
}

func runCartShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sc, err := openBrowser(ctx)
	if err != nil {
		return err
	}

	ui := newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if _, err := cart.NewService(newBackend(), log).Load(ctx, sc, ui); err != nil {
		return errShown
	}
	ui.printBadge()
	return nil
}

func runCartAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sc, err := openBrowser(ctx)
	if err != nil {
		return err
	}

	b := newBackend()
	productID := args[0]
	name := productID
	if card, err := catalog.New(b).Get(ctx, productID); err == nil {
		name = card.Name
	}

	btn := cart.NewButton(cart.AddLabels, cart.SettleDelay, buttonLogger("add"))
	defer btn.Stop()

	ui := newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err := cart.NewService(b, log).AddItem(ctx, sc, ui, productID, name, btn); err != nil {
		return errShown
	}
	fmt.Fprintln(cmd.OutOrStdout(), btn.Label())
	ui.printBadge()
	return nil
}

func runCartSet(cmd *cobra.Command, args []string) error {
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("quantity must be a whole number: %q", args[1])
	}

	ctx := cmd.Context()
	sc, err := openBrowser(ctx)
	if err != nil {
		return err
	}

	btn := cart.NewButton(cart.QuantityLabels, cart.SettleDelay, buttonLogger("quantity"))
	defer btn.Stop()

	ui := newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err := cart.NewService(newBackend(), log).SetQuantity(ctx, sc, ui, args[0], qty, btn); err != nil {
		return errShown
	}
	ui.printBadge()
	return nil
}

func runCartRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sc, err := openBrowser(ctx)
	if err != nil {
		return err
	}

	btn := cart.NewButton(cart.RemoveLabels, cart.SettleDelay, buttonLogger("remove"))
	defer btn.Stop()

	ui := newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err := cart.NewService(newBackend(), log).RemoveItem(ctx, sc, ui, args[0], btn); err != nil {
		return errShown
	}
	ui.printBadge()
	return nil
}

func runCartBadge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sc, err := openBrowser(ctx)
	if err != nil {
		return err
	}

	badge := cart.NewBadgeSynchronizer(newBackend(), log)
	ui := newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if badgeWatch <= 0 {
		badge.Refresh(ctx, sc, ui)
		ui.printBadge()
		return nil
	}

	ui.showBadge = true
	cart.NewBadgePoller(badge, sc, ui, badgeWatch).Run(ctx)
	return nil
}
