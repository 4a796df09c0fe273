package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/parse"
	"github.com/roach88/rdfio/internal/serialize"
)

// FormatInfo describes one row of the format table.
type FormatInfo struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	Extensions []string `json:"extensions"`
	MediaTypes []string `json:"media_types"`
	Quads      bool     `json:"quads"`
	Read       bool     `json:"read"`
	Write      bool     `json:"write"`
}

// FormatList is the formats command payload.
type FormatList []FormatInfo

// Text implements Texter.
func (l FormatList) Text(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLABEL\tEXTENSIONS\tMEDIA TYPE\tREAD\tWRITE")
	for _, f := range l {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			f.Name, f.Label, strings.Join(f.Extensions, ","), f.MediaTypes[0], yesNo(f.Read), yesNo(f.Write))
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// NewFormatsCommand creates the formats command.
func NewFormatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "formats",
		Short:         "List the recognized serialization formats",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Output, Writer: cmd.OutOrStdout()}
			return f.Success(listFormats())
		},
	}
}

func listFormats() FormatList {
	writable := serialize.Formats()
	var out FormatList
	for _, f := range format.All() {
		_, readable := parse.Lookup(f.Name)
		out = append(out, FormatInfo{
			Name:       f.Name,
			Label:      f.Label,
			Extensions: f.Extensions,
			MediaTypes: f.MediaTypes,
			Quads:      f.Quads,
			Read:       readable,
			Write:      slices.Contains(writable, f.Name),
		})
	}
	return out
}
