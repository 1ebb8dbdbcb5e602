package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gts-labs/gts/internal/ops"
)

func newValidateCommand(opsRef func() *ops.Ops) *cobra.Command {
	var gtsID string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a stored schema or instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), opsRef().ValidateEntity(gtsID))
		},
	}
	cmd.Flags().StringVar(&gtsID, "gts-id", "", "identifier of the entity to validate")
	_ = cmd.MarkFlagRequired("gts-id")
	return cmd
}

func newGraphCommand(opsRef func() *ops.Ops) *cobra.Command {
	var gtsID string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Resolve the reference graph of an entity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), opsRef().SchemaGraph(gtsID))
		},
	}
	cmd.Flags().StringVar(&gtsID, "gts-id", "", "identifier of the graph root")
	_ = cmd.MarkFlagRequired("gts-id")
	return cmd
}

func newCompatCommand(opsRef func() *ops.Ops) *cobra.Command {
	var oldID, newID string
	cmd := &cobra.Command{
		Use:   "compat",
		Short: "Check compatibility between two schema versions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), opsRef().Compatibility(oldID, newID))
		},
	}
	cmd.Flags().StringVar(&oldID, "old-schema-id", "", "identifier of the old schema")
	cmd.Flags().StringVar(&newID, "new-schema-id", "", "identifier of the new schema")
	_ = cmd.MarkFlagRequired("old-schema-id")
	_ = cmd.MarkFlagRequired("new-schema-id")
	return cmd
}

func newCastCommand(opsRef func() *ops.Ops) *cobra.Command {
	var fromID, toSchemaID string
	cmd := &cobra.Command{
		Use:   "cast",
		Short: "Cast an instance to a target schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), opsRef().Cast(fromID, toSchemaID))
		},
	}
	cmd.Flags().StringVar(&fromID, "from-id", "", "identifier of the instance to cast")
	cmd.Flags().StringVar(&toSchemaID, "to-schema-id", "", "identifier of the target schema")
	_ = cmd.MarkFlagRequired("from-id")
	_ = cmd.MarkFlagRequired("to-schema-id")
	return cmd
}

func newQueryCommand(opsRef func() *ops.Ops) *cobra.Command {
	var expr string
	var limit int
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query entities by a GTS expression",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), opsRef().Query(expr, limit))
		},
	}
	cmd.Flags().StringVar(&expr, "expr", "", "query expression, e.g. gts.acme.*[status=active]")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of entities to return")
	_ = cmd.MarkFlagRequired("expr")
	return cmd
}

func newGetCommand(opsRef func() *ops.Ops) *cobra.Command {
	var gtsID string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a single entity with its content",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), opsRef().GetEntity(gtsID))
		},
	}
	cmd.Flags().StringVar(&gtsID, "gts-id", "", "identifier of the entity")
	_ = cmd.MarkFlagRequired("gts-id")
	return cmd
}

func newListCommand(opsRef func() *ops.Ops) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered entities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := opsRef().GetEntities(limit)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "SCHEMA", "KIND"})
			for _, e := range res.Entities {
				kind := "instance"
				if e.IsSchema {
					kind = "schema"
				}
				t.AppendRow(table.Row{e.ID, e.SchemaID, kind})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of entities to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of a table")
	return cmd
}

func newAttrCommand(opsRef func() *ops.Ops) *cobra.Command {
	var idWithPath string
	cmd := &cobra.Command{
		Use:   "attr",
		Short: "Resolve an attribute path inside an entity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), opsRef().Attr(idWithPath))
		},
	}
	cmd.Flags().StringVar(&idWithPath, "gts-with-path", "", "identifier with path, e.g. gts.a.b.c.d.v1~x@field.sub")
	_ = cmd.MarkFlagRequired("gts-with-path")
	return cmd
}

func newAddCommand(opsRef func() *ops.Ops) *cobra.Command {
	var content, path string
	var validate bool
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an entity from JSON content",
		RunE: func(cmd *cobra.Command, _ []string) error {
			obj, err := readJSONInput(content, path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), opsRef().AddEntity(obj, validate))
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "inline JSON content")
	cmd.Flags().StringVar(&path, "file", "", "path to a JSON file, or - for stdin")
	cmd.Flags().BoolVar(&validate, "validate", false, "validate the instance after registering")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"version":    Version,
				"build_date": BuildDate,
				"git_commit": GitCommit,
			})
		},
	}
}
