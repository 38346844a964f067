package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calldesk/dialdesk/internal/metrics"
	"github.com/calldesk/dialdesk/internal/models"
)

func newMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Reporting commands",
	}

	cmd.AddCommand(newMetricsAHTCmd())
	cmd.AddCommand(newMetricsStatesCmd())
	cmd.AddCommand(newMetricsLeaderboardCmd())
	cmd.AddCommand(newMetricsQueuesCmd())
	return cmd
}

func newMetricsAHTCmd() *cobra.Command {
	var configPath string
	var agentID, sourceID uint

	cmd := &cobra.Command{
		Use:   "aht",
		Short: "Average handle time over completed tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetricsAHT(cmd, configPath, agentID, sourceID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	cmd.Flags().UintVar(&agentID, "agent", 0, "restrict to one agent")
	cmd.Flags().UintVar(&sourceID, "source", 0, "restrict to one source")
	return cmd
}

func runMetricsAHT(cmd *cobra.Command, configPath string, agentID, sourceID uint) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	var f metrics.Filter
	if agentID > 0 {
		f.AgentID = &agentID
	}
	if sourceID > 0 {
		f.SourceID = &sourceID
	}

	ht, err := metrics.AverageHandleTime(gormDB, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "AHT %.1fs over %d task(s)\n", ht.Seconds, ht.TaskCount)
	return nil
}

func newMetricsStatesCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "states",
		Short: "Agent count per availability state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetricsStates(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	return cmd
}

func runMetricsStates(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	dist, err := metrics.StateDistribution(gormDB)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, s := range models.AllStates() {
		fmt.Fprintf(out, "%s\t%d\n", s, dist.States[s])
	}
	fmt.Fprintf(out, "total\t%d\n", dist.Total)
	return nil
}

func newMetricsLeaderboardCmd() *cobra.Command {
	var configPath string
	var sourceID uint

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Agents ranked by completed task count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetricsLeaderboard(cmd, configPath, sourceID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	cmd.Flags().UintVar(&sourceID, "source", 0, "count only tasks for one source")
	return cmd
}

func runMetricsLeaderboard(cmd *cobra.Command, configPath string, sourceID uint) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	var filter *uint
	if sourceID > 0 {
		filter = &sourceID
	}

	rows, err := metrics.Leaderboard(gormDB, filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, r := range rows {
		fmt.Fprintf(out, "%d.\t%s\t%s\t%d task(s)\t%.1fs\n", i+1, r.Name, r.CurrentState, r.TaskCount, r.Seconds)
	}
	return nil
}

func newMetricsQueuesCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "queues",
		Short: "Queue breakdown for every source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetricsQueues(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	return cmd
}

func runMetricsQueues(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	stats, err := metrics.QueueStatsAll(gormDB)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, s := range stats {
		fmt.Fprintf(out, "%s\tpending:%d assigned:%d completed:%d skipped:%d total:%d\n",
			s.Name, s.Pending, s.Assigned, s.Completed, s.Skipped, s.Total)
	}
	return nil
}
