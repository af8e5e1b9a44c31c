package cmd

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <store-id>",
	Short: "Follow live events for a store",
	Long: `Watch subscribes to the server's SSE stream and prints every entity
change and sync status update for one store as it happens.

Example:
  spacectl watch 4f6b2c1a --company acme`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	storeID := args[0]

	q := url.Values{}
	q.Set("store_id", storeID)
	if companyID != "" {
		q.Set("company_id", companyID)
	}

	req, err := http.NewRequest("GET", GetServerURL()+"/events?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	// No timeout: the stream stays open until interrupted
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d)", resp.StatusCode)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		resp.Body.Close()
	}()

	fmt.Printf("Watching store %s (press Ctrl+C to stop)...\n\n", storeID)

	scanner := bufio.NewScanner(resp.Body)
	var eventType string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, ":"):
			// heartbeat comment
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			fmt.Printf("[%s] %s\n", eventType, strings.TrimPrefix(line, "data: "))
		}
	}
	return nil
}
