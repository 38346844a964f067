package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/calldesk/dialdesk/internal/agent"
	"github.com/calldesk/dialdesk/internal/models"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Agent registry commands",
	}

	cmd.AddCommand(newAgentCreateCmd())
	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentStateCmd())
	return cmd
}

func newAgentCreateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "create <name> <email>",
		Short: "Register a new agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgentCreate(cmd, configPath, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	return cmd
}

func runAgentCreate(cmd *cobra.Command, configPath, name, email string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	ag, err := agent.Create(gormDB, name, email)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Agent %d created: %s <%s> (%s)\n", ag.ID, ag.Name, ag.Email, ag.CurrentState)
	return nil
}

func newAgentListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgentList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	return cmd
}

func runAgentList(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	agents, err := agent.List(gormDB)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(agents) == 0 {
		fmt.Fprintln(out, "No agents registered.")
		return nil
	}
	for _, ag := range agents {
		fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", ag.ID, ag.Name, ag.Email, ag.CurrentState)
	}
	return nil
}

func newAgentStateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "state <agent-id> <state>",
		Short: "Change an agent's availability state",
		Long:  "Moves an agent to available, in_task, break, or wrap_up, closing the current state interval and opening a new one.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgentState(cmd, configPath, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	return cmd
}

func runAgentState(cmd *cobra.Command, configPath, rawID, state string) error {
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid agent ID %q", rawID)
	}

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	pol := agentPolicy(cfg)
	ag, err := agent.Transition(gormDB, uint(id), models.AgentState(state), pol)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Agent %d is now %s\n", ag.ID, ag.CurrentState)
	return nil
}
