package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calldesk/dialdesk/internal/source"
)

func newSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Source registry commands",
	}

	cmd.AddCommand(newSourceCreateCmd())
	cmd.AddCommand(newSourceListCmd())
	return cmd
}

func newSourceCreateCmd() *cobra.Command {
	var configPath string
	var externalRef string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a new data source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourceCreate(cmd, configPath, args[0], externalRef)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	cmd.Flags().StringVar(&externalRef, "external-ref", "", "external reference for the data-source collaborator")
	return cmd
}

func runSourceCreate(cmd *cobra.Command, configPath, name, externalRef string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	src, err := source.Create(gormDB, name, externalRef)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Source %d created: %s\n", src.ID, src.Name)
	return nil
}

func newSourceListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourceList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	return cmd
}

func runSourceList(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	sources, err := source.List(gormDB)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sources) == 0 {
		fmt.Fprintln(out, "No sources registered.")
		return nil
	}
	for _, src := range sources {
		fmt.Fprintf(out, "%d\t%s\t%s\n", src.ID, src.Name, src.ExternalRef)
	}
	return nil
}
