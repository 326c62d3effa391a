package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"streamfront/services/catalog"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
)

var cardColumns = []string{"ID", "Title", "Year", "Runtime", "Rating", "Fav"}

var cardAligns = []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderHeading(title string, colorize bool) string {
	line := strings.TrimSpace(title)
	if colorize {
		return ansiBold + line + ansiReset
	}
	return line
}

func favoriteMark(favorite bool, colorize bool) string {
	if !favorite {
		return ""
	}
	if colorize {
		return ansiRed + "♥" + ansiReset
	}
	return "yes"
}

func cardRows(cards []catalog.Card, colorize bool) [][]string {
	rows := make([][]string, 0, len(cards))
	for _, card := range cards {
		year := ""
		if card.Year > 0 {
			year = strconv.Itoa(card.Year)
		}
		rows = append(rows, []string{
			strconv.FormatInt(card.ID, 10),
			card.Title,
			year,
			card.Runtime,
			card.Rating,
			favoriteMark(card.Favorite, colorize),
		})
	}
	return rows
}

func printCards(out io.Writer, title string, cards []catalog.Card) {
	colorize := shouldColorize(out)
	fmt.Fprintln(out, renderHeading(title, colorize))
	if len(cards) == 0 {
		fmt.Fprintln(out, "  (nothing here)")
		return
	}
	fmt.Fprintln(out, renderTable(cardColumns, cardRows(cards, colorize), cardAligns))
}
