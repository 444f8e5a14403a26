package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"codeberg.org/snonux/flashgen/internal/generation"
)

// Lister handles listing available provider models
type Lister struct {
	provider     generation.Provider
	defaultModel string
	out          io.Writer
}

// NewLister creates a new model lister. defaultModel is marked in the output.
func NewLister(provider generation.Provider, defaultModel string, out io.Writer) *Lister {
	return &Lister{
		provider:     provider,
		defaultModel: defaultModel,
		out:          out,
	}
}

// ListAvailableModels prints the provider's models, grouped by family
func (l *Lister) ListAvailableModels(ctx context.Context) error {
	lister, ok := l.provider.(generation.ModelLister)
	if !ok {
		return fmt.Errorf("provider %s cannot list models", l.provider.Name())
	}

	ids, err := lister.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	fmt.Fprintf(l.out, "Available %s models:\n", l.provider.Name())
	if len(ids) == 0 {
		fmt.Fprintln(l.out, "  No models found")
		return nil
	}

	groups := Group(ids)
	families := make([]string, 0, len(groups))
	for family := range groups {
		families = append(families, family)
	}
	sort.Strings(families)

	for _, family := range families {
		fmt.Fprintf(l.out, "\n%s:\n", family)
		for _, id := range groups[family] {
			if id == l.defaultModel {
				fmt.Fprintf(l.out, "  %s (default)\n", id)
			} else {
				fmt.Fprintf(l.out, "  %s\n", id)
			}
		}
	}
	return nil
}

// Group sorts model ids into families named after their first dash
// separated segment, e.g. "claude" or "gpt".
func Group(ids []string) map[string][]string {
	groups := make(map[string][]string)
	for _, id := range ids {
		id = strings.TrimPrefix(id, "models/")
		family, _, _ := strings.Cut(id, "-")
		groups[family] = append(groups[family], id)
	}
	for _, g := range groups {
		sort.Strings(g)
	}
	return groups
}
