package ui

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/iishyfishyy/guestdist/internal/distance"
)

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	green := color.New(color.FgGreen, color.Bold)
	green.Printf("✓ %s\n", message)
}

// ShowError displays an error message
func ShowError(message string) {
	red := color.New(color.FgRed, color.Bold)
	red.Printf("✗ %s\n", message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	yellow := color.New(color.FgYellow)
	yellow.Printf("! %s\n", message)
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	blue := color.New(color.FgBlue)
	blue.Println(message)
}

// ShowSection prints a section header
func ShowSection(title string) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("\n== %s ==\n", title)
}

// RenderDistances writes matches as an aligned table, one block per
// queried guest in the order they were ranked.
func RenderDistances(w io.Writer, distances []distance.Distance) error {
	if len(distances) == 0 {
		_, err := fmt.Fprintln(w, "No matches within the distance threshold.")
		return err
	}

	bold := color.New(color.Bold)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, bold.Sprint("GUEST")+"\t"+bold.Sprint("MATCH")+"\t"+bold.Sprint("DISTANCE"))
	prev := ""
	for _, d := range distances {
		guest := d.GuestAID
		if guest == prev {
			guest = ""
		}
		prev = d.GuestAID
		fmt.Fprintf(tw, "%s\t%s\t%s\n", guest, d.GuestBID, strconv.FormatFloat(d.Distance, 'f', 4, 64))
	}

	return tw.Flush()
}
