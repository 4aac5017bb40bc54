package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"filex/internal/fileinfo"
)

func NewInfoCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "info <path>",
		Short: "Show metadata and content type of a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := targetPath(args)
			if err != nil {
				return err
			}
			info, err := rt.FS.GetFileInfo(path)
			if err != nil {
				return err
			}
			mime, err := rt.FS.DetectMimeType(path)
			if err != nil {
				mime = "unknown"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:        %s\n", info.Path)
			fmt.Fprintf(out, "Type:        %s\n", info.Type)
			fmt.Fprintf(out, "Size:        %d\n", info.Size)
			fmt.Fprintf(out, "Modified:    %s\n", info.Modified.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Permissions: %s\n", info.Permissions)
			fmt.Fprintf(out, "Hidden:      %t\n", fileinfo.IsHidden(fileinfo.BaseName(path)))
			fmt.Fprintf(out, "MIME:        %s\n", mime)
			return nil
		},
	}
}
