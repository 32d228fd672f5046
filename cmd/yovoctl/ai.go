package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yovohub/hub/internal/models"
	"github.com/yovohub/hub/internal/services/ai"
)

var (
	promptProfile ai.Profile
	promptRole    string
	promptCount   int

	fallbackLocation string
	fallbackCount    int
	outputFormat     string

	parseCount int
)

// promptCmd prints the prompt the generator would send for a profile.
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the suggestion prompt for a profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role := models.Role(promptRole)
		if !role.Valid() {
			return fmt.Errorf("role must be young or provider, got %q", promptRole)
		}
		count, err := ai.NormalizeCount(promptCount)
		if err != nil {
			return err
		}
		promptProfile.Role = role
		fmt.Fprintln(cmd.OutOrStdout(), ai.BuildPrompt(promptProfile, count))
		return nil
	},
}

// fallbackCmd prints the canned suggestions served when the model is unavailable.
var fallbackCmd = &cobra.Command{
	Use:   "fallback",
	Short: "Print the fallback suggestions for a location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := ai.NormalizeCount(fallbackCount)
		if err != nil {
			return err
		}
		return writeDrafts(cmd.OutOrStdout(), ai.FallbackSuggestions(fallbackLocation, count))
	},
}

// parseCmd runs a saved model response through the suggestion parser.
var parseCmd = &cobra.Command{
	Use:   "parse [FILE]",
	Short: "Parse a saved completion response into suggestions",
	Long: `Parse a completion message content, read from FILE or standard input,
exactly as the generator would and print the validated suggestions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		content, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("reading completion: %w", err)
		}
		count, err := ai.NormalizeCount(parseCount)
		if err != nil {
			return err
		}
		drafts, err := ai.ParseSuggestions(string(content), count)
		if err != nil {
			return err
		}
		return writeDrafts(cmd.OutOrStdout(), drafts)
	},
}

func init() {
	promptCmd.Flags().StringVar(&promptProfile.Name, "name", "", "user name")
	promptCmd.Flags().StringVar(&promptRole, "role", string(models.RoleYoung), "young or provider")
	promptCmd.Flags().StringVar(&promptProfile.Location, "location", models.DefaultLocation, "user location")
	promptCmd.Flags().StringVar(&promptProfile.Bio, "bio", "", "user bio")
	promptCmd.Flags().IntVar(&promptCount, "count", ai.DefaultSuggestionCount, "number of suggestions to ask for")

	fallbackCmd.Flags().StringVar(&fallbackLocation, "location", "", "location substituted into the templates")
	fallbackCmd.Flags().IntVar(&fallbackCount, "count", ai.DefaultSuggestionCount, "number of suggestions")

	parseCmd.Flags().IntVar(&parseCount, "count", ai.MaxSuggestionCount, "maximum number of suggestions to keep")

	for _, c := range []*cobra.Command{fallbackCmd, parseCmd} {
		c.Flags().StringVarP(&outputFormat, "output", "o", "json", "output format: json or yaml")
	}
}

func writeDrafts(w io.Writer, drafts []models.SuggestionDraft) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(drafts)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(drafts)
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}
