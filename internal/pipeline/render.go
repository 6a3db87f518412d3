package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/energy-insights/internal/utils"
)

// Format selects the output rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json or yaml (yml).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use text|json|yaml)", s)
	}
}

// Render writes res to w in the given format.
func Render(w io.Writer, res *Result, f Format, showProfile bool) error {
	switch f {
	case FormatJSON:
		b, err := utils.PrettyJSON(res)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case FormatYAML:
		b, err := utils.PrettyYAML(res)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case FormatText, "":
		bw := bufio.NewWriter(w)
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "Actionable Insights:")
		for _, in := range res.Insights {
			fmt.Fprintln(bw, "- "+string(in))
		}
		if showProfile && res.Report != nil {
			fmt.Fprintln(bw)
			fmt.Fprint(bw, res.Report.Markdown())
		}
		return bw.Flush()
	default:
		return fmt.Errorf("unsupported format: %s", f)
	}
}
