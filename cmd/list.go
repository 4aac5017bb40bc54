package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"filex/internal/fileinfo"
	"filex/internal/sortfilter"
)

func NewListCmd(rt *Runtime) *cobra.Command {
	var (
		sortBy      string
		order       string
		showAll     bool
		noDirsFirst bool
		nameFilter  string
		extFilter   string
		pattern     string
		minSize     uint64
		maxSize     uint64
		listJSON    bool
	)

	cmd := &cobra.Command{
		Use:     "list [path]",
		Short:   "List a directory, sorted and filtered",
		Aliases: []string{"ls"},
		Long: `List a directory using the configured ordering.

Examples:
  filex ls                                 # current directory
  filex ls ~/src --sort size --order desc  # largest first
  filex ls -a --pattern '*.go'             # hidden files too, Go sources only`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := targetPath(args)
			if err != nil {
				return err
			}

			sortCfg := rt.Config.SortConfig()
			if cmd.Flags().Changed("sort") {
				c, err := sortfilter.ParseCriterion(sortBy)
				if err != nil {
					return err
				}
				sortCfg = sortCfg.WithCriterion(c)
			}
			if cmd.Flags().Changed("order") {
				d, err := sortfilter.ParseDirection(order)
				if err != nil {
					return err
				}
				sortCfg.Direction = d
			}
			if noDirsFirst {
				sortCfg.FoldersFirst = false
			}

			filter := rt.Config.FilterCriteria()
			if showAll {
				filter.ShowHidden = true
			}
			if nameFilter != "" {
				filter.NameFilter = sortfilter.String(nameFilter)
			}
			if extFilter != "" {
				filter.ExtensionFilter = sortfilter.String(extFilter)
			}
			if pattern != "" {
				filter.Pattern = sortfilter.String(pattern)
			}
			if cmd.Flags().Changed("min-size") {
				filter.MinSize = sortfilter.Uint64(minSize)
			}
			if cmd.Flags().Changed("max-size") {
				filter.MaxSize = sortfilter.Uint64(maxSize)
			}

			entries, err := rt.FS.ListDirectory(path)
			if err != nil {
				return err
			}
			entries = sortfilter.Process(entries, sortCfg, filter)

			if listJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			printEntries(cmd, entries)
			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort by name, size, modified or type")
	cmd.Flags().StringVar(&order, "order", "", "Sort order: asc or desc")
	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "Include hidden entries")
	cmd.Flags().BoolVar(&noDirsFirst, "no-dirs-first", false, "Mix directories with files")
	cmd.Flags().StringVar(&nameFilter, "name", "", "Keep entries whose name contains this text")
	cmd.Flags().StringVar(&extFilter, "ext", "", "Keep entries with this extension")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Keep files matching this glob")
	cmd.Flags().Uint64Var(&minSize, "min-size", 0, "Minimum file size in bytes")
	cmd.Flags().Uint64Var(&maxSize, "max-size", 0, "Maximum file size in bytes")
	cmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	return cmd
}

func printEntries(cmd *cobra.Command, entries []fileinfo.Entry) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tSIZE\tMODIFIED\tNAME")
	for _, e := range entries {
		modified := "-"
		if e.HasModified() {
			modified = e.Modified.Local().Format("2006-01-02 15:04")
		}
		size := "-"
		if !e.IsDir() {
			size = fmt.Sprintf("%d", e.Size)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Type, size, modified, e.Name)
	}
	w.Flush()
}

// targetPath returns the absolute form of args[0], or the working directory
func targetPath(args []string) (string, error) {
	if len(args) == 0 {
		return os.Getwd()
	}
	abs, err := filepath.Abs(args[0])
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", args[0], err)
	}
	return abs, nil
}
