package command

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storehub/cmd/cli/command/client"
	"storehub/internal/microservices/http-api/dto"
)

var storeCmd = &cobra.Command{
	Use:     "stores",
	Aliases: []string{"store"},
	Short:   "Browse and manage stores",
}

var listStoresCmd = &cobra.Command{
	Use:   "list",
	Short: "List stores, optionally filtered by name, email or address",
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter dto.StoreListQuery
		filter.Name, _ = cmd.Flags().GetString("name")
		filter.Email, _ = cmd.Flags().GetString("email")
		filter.Address, _ = cmd.Flags().GetString("address")
		params := listParams(cmd)

		return authed(cmd.Context(), func(s *session) error {
			resp, err := s.ListStores(cmd.Context(), filter, params)
			if err != nil {
				return err
			}
			if len(resp.Stores) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stores found.")
				return nil
			}
			printStores(cmd.OutOrStdout(), resp.Stores)
			printPagination(cmd.OutOrStdout(), resp.Pagination)
			return nil
		})
	},
}

var showStoreCmd = &cobra.Command{
	Use:   "show [store-id]",
	Short: "Show a store with its rating distribution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "store")
		if err != nil {
			return err
		}
		return authed(cmd.Context(), func(s *session) error {
			store, err := s.GetStore(cmd.Context(), id)
			if err != nil {
				return err
			}
			printStoreDetail(cmd.OutOrStdout(), *store)
			return nil
		})
	},
}

var storeRatingsCmd = &cobra.Command{
	Use:   "ratings [store-id]",
	Short: "List the ratings of a store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "store")
		if err != nil {
			return err
		}
		params := listParams(cmd)
		return authed(cmd.Context(), func(s *session) error {
			resp, err := s.StoreRatings(cmd.Context(), id, params)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n\n", heading(resp.Store.Name), stars(resp.Store.AverageRating))
			printRatings(w, resp.Ratings)
			printPagination(w, resp.Pagination)
			return nil
		})
	},
}

var myStoreCmd = &cobra.Command{
	Use:   "mine",
	Short: "Show your store and who rated it (store owners)",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := listParams(cmd)
		return authed(cmd.Context(), func(s *session) error {
			resp, err := s.MyStore(cmd.Context(), params)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printStoreDetail(w, resp.Store)
			fmt.Fprintln(w)
			printRatings(w, resp.Ratings)
			printPagination(w, resp.Pagination)
			return nil
		})
	},
}

var createStoreCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a store (administrators)",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.CreateStoreRequest
		req.Name, _ = cmd.Flags().GetString("name")
		req.Email, _ = cmd.Flags().GetString("email")
		req.Address, _ = cmd.Flags().GetString("address")
		if owner, _ := cmd.Flags().GetUint("owner"); owner > 0 {
			req.OwnerID = &owner
		}

		return authed(cmd.Context(), func(s *session) error {
			store, err := s.CreateStore(cmd.Context(), req)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Created store %q (id %d)", store.Name, store.ID)
			return nil
		})
	},
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 1, "Page number")
	cmd.Flags().Int("limit", 10, "Items per page (max 100)")
	cmd.Flags().String("sort", "", "Sort field")
	cmd.Flags().String("order", "", "Sort order (asc or desc)")
}

func listParams(cmd *cobra.Command) client.ListParams {
	var p client.ListParams
	p.Page, _ = cmd.Flags().GetInt("page")
	p.Limit, _ = cmd.Flags().GetInt("limit")
	p.SortBy, _ = cmd.Flags().GetString("sort")
	p.SortOrder, _ = cmd.Flags().GetString("order")
	return p
}

func parseID(arg, what string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s ID: %q", what, arg)
	}
	return uint(id), nil
}

func init() {
	storeCmd.AddCommand(listStoresCmd, showStoreCmd, storeRatingsCmd, myStoreCmd, createStoreCmd)

	listStoresCmd.Flags().String("name", "", "Filter by name (substring)")
	listStoresCmd.Flags().String("email", "", "Filter by email (substring)")
	listStoresCmd.Flags().String("address", "", "Filter by address (substring)")
	addListFlags(listStoresCmd)
	addListFlags(storeRatingsCmd)
	addListFlags(myStoreCmd)

	createStoreCmd.Flags().String("name", "", "Store name (20-60 characters)")
	createStoreCmd.Flags().String("email", "", "Store email")
	createStoreCmd.Flags().String("address", "", "Store address")
	createStoreCmd.Flags().Uint("owner", 0, "Owner user ID")
	for _, f := range []string{"name", "email", "address"} {
		_ = createStoreCmd.MarkFlagRequired(f)
	}
}
