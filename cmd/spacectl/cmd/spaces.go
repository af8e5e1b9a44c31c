package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	spaceName  string
	spaceType  string
	spaceFloor string
	spaceZone  string
)

type spaceResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Floor  string `json:"floor"`
	Zone   string `json:"zone"`
}

var spacesCmd = &cobra.Command{
	Use:   "spaces",
	Short: "Manage spaces (desks, rooms, chairs)",
}

var spacesListCmd = &cobra.Command{
	Use:   "list <store-id>",
	Short: "List spaces in a store",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpacesList,
}

var spacesCreateCmd = &cobra.Command{
	Use:   "create <store-id>",
	Short: "Create a space in a store",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpacesCreate,
}

var spacesDeleteCmd = &cobra.Command{
	Use:   "delete <space-id>",
	Short: "Delete a space",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpacesDelete,
}

func init() {
	rootCmd.AddCommand(spacesCmd)
	spacesCmd.AddCommand(spacesListCmd)
	spacesCmd.AddCommand(spacesCreateCmd)
	spacesCmd.AddCommand(spacesDeleteCmd)

	spacesCreateCmd.Flags().StringVar(&spaceName, "name", "", "Space name")
	spacesCreateCmd.Flags().StringVar(&spaceType, "type", "desk", "Space type: desk, room or chair")
	spacesCreateCmd.Flags().StringVar(&spaceFloor, "floor", "", "Floor")
	spacesCreateCmd.Flags().StringVar(&spaceZone, "zone", "", "Zone")
	spacesCreateCmd.MarkFlagRequired("name")
}

func runSpacesList(cmd *cobra.Command, args []string) error {
	var spaces []spaceResponse
	path := apiPath("/stores/%s/spaces", args[0])
	if err := doRequest("GET", path, nil, http.StatusOK, &spaces); err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(spaces)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Type", "Status", "Floor", "Zone")
	for _, sp := range spaces {
		table.Append(sp.ID, sp.Name, sp.Type, sp.Status, sp.Floor, sp.Zone)
	}
	table.Render()
	return nil
}

func runSpacesCreate(cmd *cobra.Command, args []string) error {
	payload := map[string]interface{}{
		"name":  spaceName,
		"type":  spaceType,
		"floor": spaceFloor,
		"zone":  spaceZone,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var sp spaceResponse
	path := apiPath("/stores/%s/spaces", args[0])
	if err := doRequest("POST", path, bytes.NewReader(body), http.StatusCreated, &sp); err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(sp)
	}
	fmt.Printf("Space created: %s (%s)\n", sp.Name, sp.ID)
	return nil
}

func runSpacesDelete(cmd *cobra.Command, args []string) error {
	path := apiPath("/spaces/%s", args[0])
	if err := doRequest("DELETE", path, nil, http.StatusNoContent, nil); err != nil {
		return err
	}
	fmt.Printf("Space deleted: %s\n", args[0])
	return nil
}
