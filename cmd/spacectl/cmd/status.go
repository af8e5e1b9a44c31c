package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/AvivElectis/electisSpace-sub010/pkg/auth"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	RunE:  runStatus,
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a random API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := auth.GenerateAPIKey()
		if err != nil {
			return err
		}
		fmt.Println(key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(keygenCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	var status struct {
		Uptime     string                 `json:"uptime"`
		GoVersion  string                 `json:"go_version"`
		Goroutines int                    `json:"goroutines"`
		Queue      map[string]int         `json:"queue"`
		Host       map[string]interface{} `json:"host"`
	}
	if err := doRequest("GET", "/status", nil, http.StatusOK, &status); err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(status)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("Uptime", status.Uptime)
	table.Append("Go Version", status.GoVersion)
	table.Append("Goroutines", fmt.Sprintf("%d", status.Goroutines))
	for _, s := range []string{"pending", "in_flight", "failed", "dead"} {
		table.Append("Queue "+s, fmt.Sprintf("%d", status.Queue[s]))
	}
	if hostname, ok := status.Host["hostname"]; ok {
		table.Append("Hostname", fmt.Sprintf("%v", hostname))
	}
	if cpu, ok := status.Host["cpu_percent"]; ok {
		table.Append("CPU %", fmt.Sprintf("%.1f", cpu))
	}
	table.Render()
	return nil
}
