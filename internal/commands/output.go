package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/export"
)

// Output says where and how a command writes its result.
type Output struct {
	// Path is the output file. When empty the result goes to Writer.
	Path string

	// Writer receives the result when Path is empty. Default: os.Stdout.
	Writer io.Writer

	Format    export.Format
	Pretty    bool
	Overwrite bool
}

func (o Output) write(data interface{}) error {
	format := o.Format
	if format == "" {
		format = export.FormatJSON
	}

	if o.Path != "" {
		exporter := export.NewExporter(export.Options{
			Format:     format,
			FilePath:   o.Path,
			PrettyJSON: o.Pretty,
			Overwrite:  o.Overwrite,
		})
		if err := exporter.Export(data); err != nil {
			return fmt.Errorf("failed to export to %s: %w", o.Path, err)
		}
		return nil
	}

	w := o.Writer
	if w == nil {
		w = os.Stdout
	}
	return export.Write(w, format, data, o.Pretty)
}

func (o Output) target() string {
	if o.Path != "" {
		return o.Path
	}
	return "stdout"
}
