package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var syncStatusFilter string

type syncItemResponse struct {
	ID            string    `json:"id"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Op            string    `json:"op"`
	Status        string    `json:"status"`
	Attempts      int       `json:"attempts"`
	NextAttemptAt time.Time `json:"next_attempt_at"`
	LastError     string    `json:"last_error"`
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Inspect and manage the AIMS sync queue",
}

var syncListCmd = &cobra.Command{
	Use:   "list <store-id>",
	Short: "List sync queue items for a store",
	Args:  cobra.ExactArgs(1),
	RunE:  runSyncList,
}

var syncCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show queue depth by status",
	RunE:  runSyncCounts,
}

var syncRetryCmd = &cobra.Command{
	Use:   "retry <item-id>",
	Short: "Requeue a failed or dead sync item",
	Args:  cobra.ExactArgs(1),
	RunE:  runSyncRetry,
}

var syncReplayCmd = &cobra.Command{
	Use:   "replay <store-id>",
	Short: "Requeue every dead item for a store",
	Args:  cobra.ExactArgs(1),
	RunE:  runSyncReplay,
}

var syncReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run a full pull-sync pass against AIMS now",
	RunE:  runSyncReconcile,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncListCmd)
	syncCmd.AddCommand(syncCountsCmd)
	syncCmd.AddCommand(syncRetryCmd)
	syncCmd.AddCommand(syncReplayCmd)
	syncCmd.AddCommand(syncReconcileCmd)

	syncListCmd.Flags().StringVar(&syncStatusFilter, "status", "", "Filter by status: pending, in_flight, succeeded, failed, dead")
}

func runSyncList(cmd *cobra.Command, args []string) error {
	path := apiPath("/stores/%s/sync", args[0])
	if syncStatusFilter != "" {
		path += "?status=" + syncStatusFilter
	}

	var items []syncItemResponse
	if err := doRequest("GET", path, nil, http.StatusOK, &items); err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(items)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Entity", "Op", "Status", "Attempts", "Next Attempt", "Last Error")
	for _, item := range items {
		entity := fmt.Sprintf("%s/%s", item.EntityType, item.EntityID)
		table.Append(item.ID, entity, item.Op, item.Status,
			fmt.Sprintf("%d", item.Attempts),
			item.NextAttemptAt.Format(time.RFC3339),
			item.LastError)
	}
	table.Render()
	return nil
}

func runSyncCounts(cmd *cobra.Command, args []string) error {
	var counts map[string]int
	if err := doRequest("GET", apiPath("/sync/counts"), nil, http.StatusOK, &counts); err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(counts)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Status", "Count")
	for _, status := range []string{"pending", "in_flight", "succeeded", "failed", "dead"} {
		table.Append(status, fmt.Sprintf("%d", counts[status]))
	}
	table.Render()
	return nil
}

func runSyncRetry(cmd *cobra.Command, args []string) error {
	var item syncItemResponse
	path := apiPath("/sync/%s/retry", args[0])
	if err := doRequest("POST", path, nil, http.StatusOK, &item); err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(item)
	}
	fmt.Printf("Sync item %s requeued (status: %s)\n", item.ID, item.Status)
	return nil
}

func runSyncReplay(cmd *cobra.Command, args []string) error {
	var result map[string]int
	path := apiPath("/stores/%s/sync/replay", args[0])
	if err := doRequest("POST", path, nil, http.StatusOK, &result); err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(result)
	}
	fmt.Printf("Replayed %d dead items\n", result["replayed"])
	return nil
}

func runSyncReconcile(cmd *cobra.Command, args []string) error {
	var result struct {
		Reports []struct {
			StoreID  string `json:"store_id"`
			Missing  int    `json:"missing"`
			Stale    int    `json:"stale"`
			Orphaned int    `json:"orphaned"`
		} `json:"reports"`
	}
	if err := doRequest("POST", apiPath("/sync/reconcile"), nil, http.StatusOK, &result); err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(result)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Store", "Missing", "Stale", "Orphaned")
	for _, r := range result.Reports {
		table.Append(r.StoreID,
			fmt.Sprintf("%d", r.Missing),
			fmt.Sprintf("%d", r.Stale),
			fmt.Sprintf("%d", r.Orphaned))
	}
	table.Render()
	return nil
}
