package command

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"storehub/internal/microservices/http-api/aggregate"
	"storehub/internal/microservices/http-api/dto"
	"storehub/internal/microservices/http-api/query"
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	heading = color.New(color.Bold).SprintFunc()
	faint   = color.New(color.FgHiBlack).SprintFunc()
	starCol = color.New(color.FgYellow).SprintFunc()
)

func printSuccess(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, success("✓"), fmt.Sprintf(format, a...))
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// stars renders an average such as 4.3 as "★★★★☆ 4.3".
func stars(avg float64) string {
	full := int(avg + 0.5)
	return starCol(strings.Repeat("★", full)+strings.Repeat("☆", aggregate.MaxRating-full)) + fmt.Sprintf(" %.1f", avg)
}

func printPagination(w io.Writer, p query.Pagination) {
	if p.TotalPages > 1 {
		fmt.Fprintln(w, faint(fmt.Sprintf("page %d of %d (%d items)", p.CurrentPage, p.TotalPages, p.TotalItems)))
	}
}

func printStores(w io.Writer, stores []dto.StoreResponse) {
	tw := newTable(w)
	fmt.Fprintln(tw, heading("ID\tNAME\tADDRESS\tRATING\tCOUNT"))
	for _, s := range stores {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", s.ID, s.Name, truncate(s.Address, 40), stars(s.AverageRating), s.TotalRatings)
	}
	_ = tw.Flush()
}

func printStoreDetail(w io.Writer, s dto.StoreDetailResponse) {
	fmt.Fprintf(w, "%s %s\n", heading(s.Name), faint(fmt.Sprintf("#%d", s.ID)))
	fmt.Fprintf(w, "Email:   %s\n", s.Email)
	fmt.Fprintf(w, "Address: %s\n", s.Address)
	if s.Owner != nil {
		fmt.Fprintf(w, "Owner:   %s <%s>\n", s.Owner.Name, s.Owner.Email)
	}
	fmt.Fprintf(w, "Rating:  %s from %d ratings\n", stars(s.AverageRating), s.TotalRatings)
	printDistribution(w, s.RatingDistribution.Buckets())
}

func printDistribution(w io.Writer, buckets []aggregate.Bucket) {
	var total int64
	for _, b := range buckets {
		total += b.Count
	}
	for i := len(buckets) - 1; i >= 0; i-- {
		b := buckets[i]
		bar := 0
		if total > 0 {
			bar = int(b.Count * 20 / total)
		}
		fmt.Fprintf(w, "  %d★ %-20s %d\n", b.Rating, strings.Repeat("█", bar), b.Count)
	}
}

func printRatings(w io.Writer, ratings []dto.RatingResponse) {
	tw := newTable(w)
	fmt.Fprintln(tw, heading("ID\tSTORE\tUSER\tRATING\tCOMMENT\tUPDATED"))
	for _, r := range ratings {
		store, user, comment := fmt.Sprint(r.StoreID), fmt.Sprint(r.UserID), ""
		if r.Store != nil {
			store = r.Store.Name
		}
		if r.User != nil {
			user = r.User.Name
		}
		if r.Comment != nil {
			comment = truncate(*r.Comment, 40)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", r.ID, store, user, r.Rating, comment, r.UpdatedAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
