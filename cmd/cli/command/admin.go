package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"storehub/internal/microservices/http-api/dto"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrator commands",
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show platform totals and the top rated stores",
	RunE: func(cmd *cobra.Command, args []string) error {
		return authed(cmd.Context(), func(s *session) error {
			d, err := s.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Users:   %d\n", d.TotalUsers)
			for _, rc := range d.UsersByRole {
				fmt.Fprintf(w, "  %-12s %d\n", rc.Role, rc.Count)
			}
			fmt.Fprintf(w, "Stores:  %d\n", d.TotalStores)
			fmt.Fprintf(w, "Ratings: %d (%s)\n", d.TotalRatings, stars(d.AverageRating))
			fmt.Fprintln(w, faint(fmt.Sprintf("last 7 days: %d new users, %d new ratings",
				d.RecentActivity.NewUsers, d.RecentActivity.NewRatings)))

			if len(d.TopStores) > 0 {
				fmt.Fprintln(w, "\n"+heading("Top stores"))
				tw := newTable(w)
				for i, ts := range d.TopStores {
					fmt.Fprintf(tw, "%d.\t%s\t%s\t%d ratings\n", i+1, ts.Name, stars(ts.AverageRating), ts.TotalRatings)
				}
				_ = tw.Flush()
			}
			return nil
		})
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users with their rating activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter dto.UserListQuery
		filter.Name, _ = cmd.Flags().GetString("name")
		filter.Email, _ = cmd.Flags().GetString("email")
		filter.Address, _ = cmd.Flags().GetString("address")
		filter.Role, _ = cmd.Flags().GetString("role")
		params := listParams(cmd)

		return authed(cmd.Context(), func(s *session) error {
			resp, err := s.ListUsers(cmd.Context(), filter, params)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, heading("ID\tNAME\tEMAIL\tROLE\tRATINGS\tAVG GIVEN"))
			for _, u := range resp.Users {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%.1f\n", u.ID, u.Name, u.Email, u.Role, u.TotalRatingsSubmitted, u.AverageRatingGiven)
			}
			_ = tw.Flush()
			printPagination(cmd.OutOrStdout(), resp.Pagination)
			return nil
		})
	},
}

func init() {
	adminCmd.AddCommand(dashboardCmd, usersCmd)
	usersCmd.Flags().String("name", "", "Filter by name (substring)")
	usersCmd.Flags().String("email", "", "Filter by email (substring)")
	usersCmd.Flags().String("address", "", "Filter by address (substring)")
	usersCmd.Flags().String("role", "", "Filter by role (admin, user, store_owner)")
	addListFlags(usersCmd)
}
