package main

import (
	"fmt"

	"github.com/spf13/cobra"

	membership "github.com/vinculo/go-membership"
)

func newCleanInvitationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean-invitations",
		Short: "Delete invitations left pending for more than one hour",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initViper(cmd); err != nil {
				return err
			}

			db, err := openDatabase(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := membership.NewRepositoryManager(db)
			handler := membership.NewCleanInvitationsHandler(repo)

			deleted, err := handler.Execute(cmd.Context(), membership.CleanInvitationsMessage{})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired invitations.\n", deleted)
			return nil
		},
	}
}
