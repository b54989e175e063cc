package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"burnrate/internal/categories"
)

// withStore runs fn against the loaded categories document.
func (a *app) withStore(ctx context.Context, fn func(*categories.Store) error) error {
	store, client, err := a.openStore(ctx, nil)
	if err != nil {
		return err
	}
	defer closeClient(a.logger, client)
	return fn(store)
}

func newCategoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "List, add and remove categories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print every category with its keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *categories.Store) error {
				for _, rule := range store.Rules() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", rule.Name, strings.Join(rule.Keywords, ", "))
				}
				return nil
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an empty category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *categories.Store) error {
				added, err := store.AddCategory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				report(cmd, added, "added category %q", "category %q already exists", strings.TrimSpace(args[0]))
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove"},
		Short:   "Remove a category and its keywords",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *categories.Store) error {
				removed, err := store.RemoveCategory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				report(cmd, removed, "removed category %q", "category %q cannot be removed", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}

func newKeywordsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keywords",
		Aliases: []string{"kw"},
		Short:   "List, add and remove keywords of a category",
	}

	list := &cobra.Command{
		Use:   "list <category>",
		Short: "Print the keywords of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *categories.Store) error {
				kws, err := store.Keywords(args[0])
				if err != nil {
					return err
				}
				for _, kw := range kws {
					fmt.Fprintln(cmd.OutOrStdout(), kw)
				}
				return nil
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <category> <keyword>",
		Short: "Add a keyword to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *categories.Store) error {
				added, err := store.AddKeyword(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				report(cmd, added, "added keyword %q", "keyword %q not added", strings.TrimSpace(args[1]))
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:     "rm <category> <keyword>",
		Aliases: []string{"remove"},
		Short:   "Remove a keyword from a category",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *categories.Store) error {
				removed, err := store.RemoveKeyword(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				report(cmd, removed, "removed keyword %q", "keyword %q not found", strings.TrimSpace(args[1]))
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}

func report(cmd *cobra.Command, changed bool, done, unchanged, name string) {
	format := unchanged
	if changed {
		format = done
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", name)
}
