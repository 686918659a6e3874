package cmd

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/precog/precog-cli/internal/api"
)

type formatInfo struct {
	Name    string            `json:"name"`
	MIME    string            `json:"mime"`
	Params  map[string]string `json:"params,omitempty"`
	Aliases []string          `json:"aliases,omitempty"`
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "formats",
		Aliases: []string{"fmt"},
		Short:   "List the payload formats accepted by ingest",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			infos := formatInfos()
			f := newFormatter(cmd)
			if !f.StartTable([]string{"NAME", "MIME", "PARAMS", "ALIASES"}) {
				return f.Output(infos)
			}
			for _, info := range infos {
				f.Row(info.Name, info.MIME, renderParams(info.Params), dashIfEmpty(strings.Join(info.Aliases, ", ")))
			}
			return f.EndTable()
		}),
	}
}

func formatInfos() []formatInfo {
	names := api.FormatNames()
	var infos []formatInfo
	for _, format := range api.Formats() {
		info := formatInfo{Name: format.Name(), MIME: format.MIME(), Params: format.Params()}
		for _, alias := range names {
			if alias == info.Name {
				continue
			}
			if resolved, err := api.LookupFormat(alias); err == nil && resolved.Name() == info.Name {
				info.Aliases = append(info.Aliases, alias)
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// formatRegistryNames returns the canonical format names.
func formatRegistryNames() []string {
	var names []string
	for _, f := range api.Formats() {
		names = append(names, f.Name())
	}
	return names
}

func renderParams(params map[string]string) string {
	if len(params) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := params[k]
		if v == "\t" {
			v = `\t`
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}
