package cli

import (
	"errors"
	"fmt"

	"github.com/joacominatel/devintest/internal/app"
	"github.com/joacominatel/devintest/internal/database"
	"github.com/joacominatel/devintest/internal/tui/theme"
	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create the devin_test table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFrom(cmd)
			if err != nil {
				return err
			}
			if err := svc.CreateTable(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), theme.OK("devin_test table ready"))
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the four seed rows, skipping ids that exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFrom(cmd)
			if err != nil {
				return err
			}

			report, err := svc.SeedRows(cmd.Context())
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "inserted: %s\nskipped:  %s\n", idList(report.Inserted), idList(report.Skipped))
			if len(report.Failed) > 0 {
				_, _ = fmt.Fprintln(out, theme.Failed("failed:   "+idList(report.Failed)))
			}
			return err
		},
	}
}

func newInsertCmd() *cobra.Command {
	var rec database.Record
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert one row unless its id exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFrom(cmd)
			if err != nil {
				return err
			}
			n, err := svc.InsertRow(cmd.Context(), rec)
			if err != nil {
				return err
			}
			if n == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "id=%d exists, skipped\n", rec.ID)
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), theme.OK(fmt.Sprintf("inserted id=%d", rec.ID)))
			return nil
		},
	}
	cmd.Flags().Int64Var(&rec.ID, "id", 0, "row id")
	cmd.Flags().StringVar(&rec.Name, "name", "", "row name")
	cmd.Flags().StringVar(&rec.Data, "data", "", "row data")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var (
		id   int64
		data string
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Set data on the row with id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFrom(cmd)
			if err != nil {
				return err
			}
			n, err := svc.UpdateRow(cmd.Context(), id, data)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) updated\n", n)
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", app.DemoUpdateID, "row id")
	cmd.Flags().StringVar(&data, "data", app.DemoUpdateData, "new data value")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the row with id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFrom(cmd)
			if err != nil {
				return err
			}
			n, err := svc.DeleteRow(cmd.Context(), id)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) deleted\n", n)
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", app.DemoDeleteID, "row id")
	return cmd
}

func newGetCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the row with id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFrom(cmd)
			if err != nil {
				return err
			}
			rec, err := svc.GetRow(cmd.Context(), id)
			if errors.Is(err, app.ErrNotFound) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "id=%d not found\n", id)
				return err
			}
			if err != nil {
				return err
			}
			renderRecords(cmd.OutOrStdout(), []database.Record{*rec})
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "row id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every devin_test row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFrom(cmd)
			if err != nil {
				return err
			}
			recs, err := svc.ListRows(cmd.Context())
			if err != nil {
				return err
			}
			renderRecords(cmd.OutOrStdout(), recs)
			return nil
		},
	}
}

func newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec SQL [ARGS...]",
		Short: "Run one statement; reads roll back, writes commit",
		Long: `Run one SQL statement in its own session and transaction. Statements starting
with SELECT, SHOW, EXPLAIN, VALUES or TABLE are reads and are rolled back;
everything else is committed. ARGS bind to $1, $2, ... as text.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceFrom(cmd)
			if err != nil {
				return err
			}

			params := make([]any, len(args)-1)
			for i, a := range args[1:] {
				params[i] = a
			}

			res, err := svc.Exec(cmd.Context(), database.NewStatement(args[0], params...))
			if err != nil {
				return err
			}
			renderResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Open and release one session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFrom(cmd)
			if err != nil {
				return err
			}
			if err := svc.Ping(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), theme.OK("connected to "+svc.Descriptor().DisplayString()))
			return nil
		},
	}
}

func idList(ids []int64) string {
	if len(ids) == 0 {
		return "none"
	}
	s := fmt.Sprint(ids[0])
	for _, id := range ids[1:] {
		s += fmt.Sprintf(", %d", id)
	}
	return s
}
