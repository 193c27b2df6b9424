package command

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storehub/internal/microservices/http-api/dto"
)

var ratingCmd = &cobra.Command{
	Use:     "rating",
	Aliases: []string{"ratings"},
	Short:   "Rating commands",
	Long:    `Rate stores, list and delete your ratings, and view platform rating statistics.`,
}

var rateCmd = &cobra.Command{
	Use:   "rate [store-id] [rating]",
	Short: "Rate a store (1-5); rating again replaces your previous rating",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		storeID, err := parseID(args[0], "store")
		if err != nil {
			return err
		}
		rating, err := strconv.Atoi(args[1])
		if err != nil || rating < 1 || rating > 5 {
			return fmt.Errorf("rating must be a whole number between 1 and 5")
		}

		req := dto.SubmitRatingRequest{StoreID: storeID, Rating: rating}
		if cmd.Flags().Changed("comment") {
			comment, _ := cmd.Flags().GetString("comment")
			req.Comment = &comment
		}

		return authed(cmd.Context(), func(s *session) error {
			res, err := s.SubmitRating(cmd.Context(), req)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "%s: store %d rated %d", res.Message, res.Rating.StoreID, res.Rating.Rating)
			return nil
		})
	},
}

var myRatingsCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := listParams(cmd)
		return authed(cmd.Context(), func(s *session) error {
			resp, err := s.MyRatings(cmd.Context(), params)
			if err != nil {
				return err
			}
			if len(resp.Ratings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "You have not rated any store yet.")
				return nil
			}
			printRatings(cmd.OutOrStdout(), resp.Ratings)
			printPagination(cmd.OutOrStdout(), resp.Pagination)
			return nil
		})
	},
}

var deleteRatingCmd = &cobra.Command{
	Use:   "delete [rating-id]",
	Short: "Delete one of your ratings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "rating")
		if err != nil {
			return err
		}
		return authed(cmd.Context(), func(s *session) error {
			if err := s.DeleteRating(cmd.Context(), id); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Rating %d deleted", id)
			return nil
		})
	},
}

var ratingStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Platform-wide rating statistics (administrators)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return authed(cmd.Context(), func(s *session) error {
			stats, err := s.RatingStats(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s from %d ratings\n", heading("Average"), stars(stats.AverageRating), stats.TotalRatings)
			printDistribution(w, stats.RatingDistribution)
			if len(stats.RecentRatings) > 0 {
				fmt.Fprintln(w, "\n"+heading("Recent"))
				printRatings(w, stats.RecentRatings)
			}
			return nil
		})
	},
}

func init() {
	ratingCmd.AddCommand(rateCmd, myRatingsCmd, deleteRatingCmd, ratingStatsCmd)
	rateCmd.Flags().StringP("comment", "c", "", "Optional comment (up to 1000 characters)")
	addListFlags(myRatingsCmd)
}
