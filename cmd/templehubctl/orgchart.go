package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/app/system/hierarchy"
	"github.com/spf13/cobra"
)

var orgchartCmd = &cobra.Command{
	Use:   "orgchart",
	Short: "Print the leadership hierarchy",
	Long: `Print admins, leader trees and unassigned members as an indented
outline. Cycles and duplicate ids found while building are listed at the end.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		db, closeDB, err := connect(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		all, err := members.New(db).ListForOrganization(ctx)
		if err != nil {
			return fmt.Errorf("load members: %w", err)
		}
		return hierarchy.Render(os.Stdout, hierarchy.Build(all))
	},
}
