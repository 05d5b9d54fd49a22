package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/felixrdev/grant-tagging-system/internal/tui"
	"github.com/felixrdev/grant-tagging-system/internal/usecase/discovery"
)

func newBrowseCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive discovery view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), f, logToFile)
			if err != nil {
				return err
			}
			defer a.Close()

			relay := &tui.Relay{}
			ctl := a.newController(
				discovery.WithOnChange(relay.OnChange),
				discovery.WithOnError(func(err error) {
					a.logger.Warn("Discovery error", zap.Error(err))
					relay.OnError(err)
				}),
			)
			defer ctl.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			p := tea.NewProgram(tui.New(ctl), tea.WithAltScreen(), tea.WithContext(ctx))
			relay.Attach(p)

			// Loads run in the background; failures reach the view through the relay.
			go func() { _ = ctl.Start(ctx) }()

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run terminal ui: %w", err)
			}
			return nil
		},
	}
}
