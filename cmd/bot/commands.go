package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"quizbot/internal/discord"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Print the slash command definitions registered on startup",
	RunE: func(cmd *cobra.Command, args []string) error {
		group, _ := cmd.Flags().GetString("group")

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(discord.Commands(group))
	},
}

func init() {
	commandsCmd.Flags().String("group", "ilham", "Command group name")
}
