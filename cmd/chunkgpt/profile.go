package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
)

var profileCmd = &cobra.Command{
	Use:   "profile [model]",
	Short: "Show the context window and price used for a model",
	Long:  "Show the context window and price resolved for a model id. Without a model every known family is listed.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return printProfiles(cmd.OutOrStdout(), summarizer.Profiles())
		}
		p := summarizer.ResolveProfile(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "model: %s\nfamily: %s\ntoken limit: %s\nprice per token: %g¢\n",
			args[0], p.Prefix, humanize.Comma(int64(p.TokenLimit)), p.PricePerToken)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

func printProfiles(out io.Writer, profiles []summarizer.ModelProfile) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FAMILY\tTOKEN LIMIT\tPRICE PER TOKEN")
	for _, p := range profiles {
		fmt.Fprintf(w, "%s\t%s\t%g¢\n", p.Prefix, humanize.Comma(int64(p.TokenLimit)), p.PricePerToken)
	}
	return w.Flush()
}
