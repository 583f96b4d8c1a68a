package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"market-admin/pkg/adminclient"
)

func newProductsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Browse and manage the catalogue",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, nil); err != nil {
				return err
			}
			return a.requireAdmin(cmd.Context())
		},
	}

	var q adminclient.ProductQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := a.client.ListProducts(cmd.Context(), q)
			if err != nil {
				return err
			}
			printProducts(cmd.OutOrStdout(), products)
			return nil
		},
	}
	list.Flags().StringVar(&q.Category, "category", "", "filter by category")
	list.Flags().StringVar(&q.Status, "status", "", "filter by status")
	list.Flags().StringVar(&q.Search, "search", "", "text filter")
	list.Flags().IntVar(&q.Limit, "limit", 50, "page size")
	list.Flags().IntVar(&q.Offset, "offset", 0, "rows to skip")

	search := &cobra.Command{
		Use:   "search <text>",
		Short: "Search name, description and category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := a.client.SearchProducts(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printProducts(cmd.OutOrStdout(), products)
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.client.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "ID\t%s\n", p.ID)
			fmt.Fprintf(w, "Name\t%s\n", p.Name)
			fmt.Fprintf(w, "Category\t%s\n", p.Category)
			fmt.Fprintf(w, "Price\t%s\n", p.Price.StringFixed(2))
			fmt.Fprintf(w, "Stock\t%d\n", p.StockQuantity)
			fmt.Fprintf(w, "Status\t%s\n", p.Status)
			fmt.Fprintf(w, "Version\t%d\n", p.Version)
			fmt.Fprintf(w, "Images\t%s\n", strings.Join(p.Images, ", "))
			fmt.Fprintf(w, "Description\t%s\n", p.Description)
			return w.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteProduct(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Product deleted successfully")
			return nil
		},
	}

	cmd.AddCommand(list, search, get, del)
	return cmd
}

func printProducts(out io.Writer, products []*adminclient.Product) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tSTATUS")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.StockQuantity, p.Status)
	}
	w.Flush()
	fmt.Fprintf(out, "%d product(s)\n", len(products))
}
