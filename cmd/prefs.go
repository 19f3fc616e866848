package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NicolasAcosta04/SCR/internal/category"
	"github.com/NicolasAcosta04/SCR/internal/config"
	"github.com/NicolasAcosta04/SCR/internal/prefs"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show your category preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		client := newClient(cfg)

		codes, err := client.Preferences(cmd.Context())
		if err != nil {
			return fmt.Errorf("loading preferences: %w", err)
		}
		if len(codes) == 0 {
			fmt.Println("No preferences set. The feed uses the general query.")
			return nil
		}
		for i, c := range codes {
			fmt.Printf("%d. %s (%s)\n", i+1, category.Label(category.Category(c)), c)
		}
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <categories>",
	Short: "Replace your category preferences",
	Long: `Replace the persisted preference list with a comma-separated set of
category codes, e.g. "scr prefs set tech,business". At most 5 categories.

Valid codes: tech, business, politics, entertainment, sport, science, health.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		client := newClient(cfg)

		cats := parseCategories(args[0])
		model := prefs.NewModel(client)
		defer model.Close()
		if err := model.UpdatePreferences(cmd.Context(), cats); err != nil {
			return fmt.Errorf("updating preferences: %w", err)
		}

		fmt.Printf("Preferences saved: %s\n", category.ComposeQuery(cats))
		return nil
	},
}

func init() {
	prefsCmd.AddCommand(prefsSetCmd)
}

func parseCategories(s string) []category.Category {
	var out []category.Category
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		out = append(out, category.Category(part))
	}
	return out
}
