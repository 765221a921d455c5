package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rendis/flowkit/internal/store"
)

// newDiagramsCmd groups the commands that work on the diagram database.
func newDiagramsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "diagrams",
		Aliases: []string{"d"},
		Short:   "Manage stored diagrams",
	}
	cmd.AddCommand(
		newDiagramsSaveCmd(a),
		newDiagramsGetCmd(a),
		newDiagramsListCmd(a),
		newDiagramsDeleteCmd(a),
		newDiagramsHistoryCmd(a),
	)
	return cmd
}

func newDiagramsSaveCmd(a *app) *cobra.Command {
	var (
		id          string
		name        string
		description string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "save <graph-file>",
		Short: "Store a graph as a new diagram or a new revision of an existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGraph(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			d := &store.Diagram{
				ID:          id,
				Name:        name,
				Description: description,
				Graph:       g,
				Tags:        tags,
			}
			if d.Name == "" {
				d.Name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			if err := s.SaveDiagram(cmd.Context(), d); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"id":       d.ID,
				"revision": d.Revision,
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "diagram id (default: a new uuid)")
	cmd.Flags().StringVar(&name, "name", "", "diagram name (default: the file name)")
	cmd.Flags().StringVar(&description, "description", "", "diagram description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")
	return cmd
}

func newDiagramsGetCmd(a *app) *cobra.Command {
	var revision int64

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if revision > 0 {
				rev, err := s.GetRevision(cmd.Context(), args[0], revision)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), rev)
			}
			d, err := s.GetDiagram(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), d)
		},
	}
	cmd.Flags().Int64Var(&revision, "revision", 0, "print this revision instead of the latest diagram")
	return cmd
}

func newDiagramsListCmd(a *app) *cobra.Command {
	var (
		filter store.DiagramFilter
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored diagrams, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if since > 0 {
				t := time.Now().Add(-since)
				filter.Since = &t
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			diagrams, err := s.ListDiagrams(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), diagrams)
		},
	}
	cmd.Flags().StringVar(&filter.Name, "name", "", "filter by name substring")
	cmd.Flags().StringVar(&filter.Tag, "tag", "", "filter by tag")
	cmd.Flags().DurationVar(&since, "since", 0, "only diagrams updated within this duration")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum number of diagrams")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "number of diagrams to skip")
	return cmd
}

func newDiagramsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a diagram and its revisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return s.DeleteDiagram(cmd.Context(), args[0])
		},
	}
}

func newDiagramsHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "List the revisions of a diagram, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			revs, err := s.ListRevisions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), revs)
		},
	}
}
