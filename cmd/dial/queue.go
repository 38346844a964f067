package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calldesk/dialdesk/internal/queue"
	"github.com/calldesk/dialdesk/internal/workflow"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Work queue commands",
	}

	cmd.AddCommand(newQueueEnqueueCmd())
	cmd.AddCommand(newQueueNextCmd())
	cmd.AddCommand(newQueueCompleteCmd())
	cmd.AddCommand(newQueueSkipCmd())
	cmd.AddCommand(newQueueStatsCmd())
	return cmd
}

func newQueueEnqueueCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "enqueue <source-id> <record-id>...",
		Short: "Enqueue records for a source",
		Long:  "Creates one pending entry per record ID not already queued. Re-enqueueing known IDs is a no-op.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueEnqueue(cmd, configPath, args[0], args[1:])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	return cmd
}

func runQueueEnqueue(cmd *cobra.Command, configPath, rawSource string, rawIDs []string) error {
	sourceID, err := parseID(rawSource, "source")
	if err != nil {
		return err
	}
	recordIDs := make([]int64, 0, len(rawIDs))
	for _, raw := range rawIDs {
		rid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid record ID %q", raw)
		}
		recordIDs = append(recordIDs, rid)
	}

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	n, err := queue.Enqueue(gormDB, sourceID, recordIDs)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %d new record(s) for source %d\n", n, sourceID)
	return nil
}

func newQueueNextCmd() *cobra.Command {
	var configPath string
	var reserveOnly bool

	cmd := &cobra.Command{
		Use:   "next <source-id> <agent-id>",
		Short: "Pull the next record for an agent",
		Long:  "Reserves the next pending entry and opens a task ledger entry for the agent. With --reserve-only, the ledger is left alone.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueNext(cmd, configPath, args[0], args[1], reserveOnly)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	cmd.Flags().BoolVar(&reserveOnly, "reserve-only", false, "reserve the entry without opening a task ledger entry")
	return cmd
}

func runQueueNext(cmd *cobra.Command, configPath, rawSource, rawAgent string, reserveOnly bool) error {
	sourceID, err := parseID(rawSource, "source")
	if err != nil {
		return err
	}
	agentID, err := parseID(rawAgent, "agent")
	if err != nil {
		return err
	}

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if reserveOnly {
		entry, err := queue.ReserveNext(gormDB, sourceID, agentID)
		if err != nil {
			return err
		}
		if entry == nil {
			fmt.Fprintln(out, "Queue is empty.")
			return nil
		}
		fmt.Fprintf(out, "Reserved entry %d (record %d) for agent %d\n", entry.ID, entry.RecordID, agentID)
		return nil
	}

	opts := workflow.Options{Queue: queuePolicy(cfg), Agent: agentPolicy(cfg)}
	asg, err := workflow.PullNext(gormDB, sourceID, agentID, opts)
	if err != nil {
		return err
	}
	if asg == nil {
		fmt.Fprintln(out, "Queue is empty.")
		return nil
	}
	fmt.Fprintf(out, "Assigned entry %d (record %d) to agent %d, task %d\n",
		asg.Entry.ID, asg.Entry.RecordID, agentID, asg.Task.ID)
	return nil
}

func newQueueCompleteCmd() *cobra.Command {
	var configPath string
	var taskID uint

	cmd := &cobra.Command{
		Use:   "complete <entry-id>",
		Short: "Complete a queue entry",
		Long:  "Marks a queue entry completed. With --task, the ledger entry is closed first and the agent moves to wrap_up.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueComplete(cmd, configPath, args[0], taskID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	cmd.Flags().UintVar(&taskID, "task", 0, "task ledger entry to close alongside the queue entry")
	return cmd
}

func runQueueComplete(cmd *cobra.Command, configPath, rawEntry string, taskID uint) error {
	entryID, err := parseID(rawEntry, "entry")
	if err != nil {
		return err
	}

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if taskID > 0 {
		opts := workflow.Options{Queue: queuePolicy(cfg), Agent: agentPolicy(cfg)}
		asg, err := workflow.Wrap(gormDB, taskID, entryID, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Entry %d completed, task %d closed\n", asg.Entry.ID, asg.Task.ID)
		return nil
	}

	entry, err := queue.Complete(gormDB, entryID, queuePolicy(cfg))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Entry %d completed\n", entry.ID)
	return nil
}

func newQueueSkipCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "skip <entry-id>",
		Short: "Skip a queue entry",
		Long:  "Marks a queue entry skipped and releases its assignment. The task ledger is left alone.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueSkip(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	return cmd
}

func runQueueSkip(cmd *cobra.Command, configPath, rawEntry string) error {
	entryID, err := parseID(rawEntry, "entry")
	if err != nil {
		return err
	}

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	entry, err := queue.Skip(gormDB, entryID, queuePolicy(cfg))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Entry %d skipped\n", entry.ID)
	return nil
}

func newQueueStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats <source-id>",
		Short: "Show queue status counts for a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueStats(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	return cmd
}

func runQueueStats(cmd *cobra.Command, configPath, rawSource string) error {
	sourceID, err := parseID(rawSource, "source")
	if err != nil {
		return err
	}

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	counts, err := queue.Stats(gormDB, sourceID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rows := []string{
		fmt.Sprintf("pending\t%d", counts.Pending),
		fmt.Sprintf("assigned\t%d", counts.Assigned),
		fmt.Sprintf("completed\t%d", counts.Completed),
		fmt.Sprintf("skipped\t%d", counts.Skipped),
		fmt.Sprintf("total\t%d", counts.Total),
	}
	fmt.Fprintln(out, strings.Join(rows, "\n"))
	return nil
}

// parseID parses a numeric CLI identifier.
func parseID(raw, what string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID %q", what, raw)
	}
	return uint(v), nil
}
