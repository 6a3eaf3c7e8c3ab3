// file: internal/docsgen/docsgen.go
// version: 1.0.0
// guid: 8b0c2d4e-6f7a-4b9c-8d1e-3f5a7b9c1d2e

package docsgen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/absmeta/metadata-server/internal/provider"
)

// Generate renders the Markdown documentation of every available provider
// config under providersDir and writes it to outputPath. Providers marked
// unavailable are skipped; unreadable configs are reported but don't stop
// the run.
func Generate(providersDir, outputPath string) (int, error) {
	configs, err := collectConfigs(providersDir)
	if err != nil {
		return 0, err
	}

	var b strings.Builder
	b.WriteString("# Metadata Providers\n\n")
	fmt.Fprintf(&b, "Total Providers: %d\n\n", len(configs))
	b.WriteString("## Table of Contents\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "- [%s](#%s)\n", cfg.Name, cfg.ID)
	}
	b.WriteString("\n---\n\n")

	for _, cfg := range configs {
		writeProviderSection(&b, cfg)
	}

	if err := os.WriteFile(outputPath, []byte(b.String()), 0o644); err != nil {
		return 0, fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return len(configs), nil
}

func collectConfigs(providersDir string) ([]provider.Config, error) {
	entries, err := os.ReadDir(providersDir)
	if err != nil {
		return nil, fmt.Errorf("reading providers directory: %w", err)
	}

	var configs []provider.Config
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(providersDir, entry.Name(), "config.json"))
		if err != nil {
			continue
		}
		var cfg provider.Config
		if err := json.Unmarshal(raw, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "failed to read config for %s: %v\n", entry.Name(), err)
			continue
		}
		if cfg.IsAvailable() {
			configs = append(configs, cfg)
		}
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs, nil
}

func writeProviderSection(b *strings.Builder, cfg provider.Config) {
	fmt.Fprintf(b, "## %s\n\n", cfg.Name)
	fmt.Fprintf(b, "**ID:** `%s`\n\n", cfg.ID)
	fmt.Fprintf(b, "**Description:** %s\n\n", cfg.Description)
	fmt.Fprintf(b, "**Metadata-URL:** [%s](%s)\n\n", cfg.URL, cfg.URL)

	b.WriteString("### Parameters\n\n")

	var required, optional []provider.Parameter
	for _, p := range cfg.Parameters {
		if p.Required {
			required = append(required, p)
		} else {
			optional = append(optional, p)
		}
	}

	writeParamTable(b, "Required Parameters", required)
	writeParamTable(b, "Optional Parameters", optional)
	if len(cfg.Parameters) == 0 {
		b.WriteString("No parameters required.\n\n")
	}

	b.WriteString("### Returned Fields\n\n")
	if len(cfg.ReturnedFields) > 0 {
		for i, field := range cfg.ReturnedFields {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(b, "- `%s`", field)
		}
		b.WriteString("\n\n")
	} else {
		b.WriteString("No fields specified.\n\n")
	}

	b.WriteString("### Example Request\n\n```\n")
	if len(required) > 0 {
		tokens := make([]string, len(required))
		for i, p := range required {
			tokens[i] = p.Name + ":" + exampleValue(p)
		}
		fmt.Fprintf(b, "GET /%s/%s/search?title=example&author=author\n", cfg.ID, strings.Join(tokens, "/"))
	} else {
		fmt.Fprintf(b, "GET /%s/search?title=example&author=author\n", cfg.ID)
	}
	b.WriteString("```\n\n")

	if len(cfg.Comments) > 0 {
		b.WriteString("### Comments\n\n")
		for _, comment := range cfg.Comments {
			fmt.Fprintf(b, "- %s\n", comment)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
}

func writeParamTable(b *strings.Builder, heading string, params []provider.Parameter) {
	if len(params) == 0 {
		return
	}
	fmt.Fprintf(b, "#### %s\n\n", heading)
	b.WriteString("| Name | Type | Validation | Description |\n")
	b.WriteString("|------|------|------------|-------------|\n")
	for _, p := range params {
		desc := p.Description
		if desc == "" {
			desc = "-"
		}
		fmt.Fprintf(b, "| `%s` | %s | %s | %s |\n", p.Name, p.Validation.Type, formatValidation(p.Validation), desc)
	}
	b.WriteString("\n")
}

func formatValidation(v provider.ValidationRule) string {
	switch v.Type {
	case "enum":
		if len(v.Values) > 0 {
			return "[" + strings.Join(v.Values, ", ") + "]"
		}
	case "regex":
		if v.Pattern != "" {
			return "`" + v.Pattern + "`"
		}
	case "number", "int":
		switch {
		case v.Min != nil && v.Max != nil:
			return formatBound(*v.Min) + "-" + formatBound(*v.Max)
		case v.Min != nil:
			return "≥ " + formatBound(*v.Min)
		case v.Max != nil:
			return "≤ " + formatBound(*v.Max)
		}
	case "string":
		switch {
		case v.Min != nil && v.Max != nil:
			return formatBound(*v.Min) + "-" + formatBound(*v.Max) + " chars"
		case v.Min != nil:
			return "≥ " + formatBound(*v.Min) + " chars"
		case v.Max != nil:
			return "≤ " + formatBound(*v.Max) + " chars"
		}
	}
	return "-"
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func exampleValue(p provider.Parameter) string {
	v := p.Validation
	switch v.Type {
	case "enum":
		if len(v.Values) > 0 {
			return v.Values[0]
		}
		return "value"
	case "regex", "string":
		return "example"
	case "number", "int":
		if v.Min != nil {
			return formatBound(*v.Min)
		}
		return "1"
	default:
		return "value"
	}
}
