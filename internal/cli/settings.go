package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andywolf/crashreporter/internal/config"
)

const maskedPassword = "********"

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change Bugzilla settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective Bugzilla settings",
	Long: `Print the effective Bugzilla settings under their plugin key names.
The password is masked.`,
	Args: cobra.NoArgs,
	RunE: showSettings,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY=VALUE...",
	Short: "Change Bugzilla settings",
	Long: `Change Bugzilla settings and save them to the config file.

Keys use the plugin names: BugzillaURL, Login, Password, NoSSLVerify.
NoSSLVerify is enabled only by the value "yes".

Example:
  crashreporter settings set BugzillaURL=https://bugzilla.example.com/xmlrpc.cgi Login=me@example.com`,
	Args: cobra.MinimumNArgs(1),
	RunE: setSettings,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func showSettings(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	m := cfg.Bugzilla.Map()
	if m[config.KeyPassword] != "" {
		m[config.KeyPassword] = maskedPassword
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", k, m[k])
	}
	return nil
}

func setSettings(cmd *cobra.Command, args []string) error {
	updates, err := parseAssignments(args)
	if err != nil {
		return err
	}

	path := configPath()
	doc, err := readConfigDoc(path)
	if err != nil {
		return err
	}

	var current config.Settings
	if raw, ok := doc["bugzilla"]; ok {
		data, err := yaml.Marshal(raw)
		if err != nil {
			return fmt.Errorf("failed to re-encode bugzilla settings: %w", err)
		}
		if err := yaml.Unmarshal(data, &current); err != nil {
			return fmt.Errorf("failed to parse bugzilla settings in %s: %w", path, err)
		}
	}

	current.Apply(updates)
	if current.BugzillaURL != "" {
		if err := current.Validate(); err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}
	}
	doc["bugzilla"] = current

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold a password.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", path)
	return nil
}

// parseAssignments turns KEY=VALUE arguments into a settings map.
func parseAssignments(args []string) (map[string]string, error) {
	known := map[string]bool{
		config.KeyBugzillaURL: true,
		config.KeyLogin:       true,
		config.KeyPassword:    true,
		config.KeyNoSSLVerify: true,
	}

	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q (expected KEY=VALUE)", arg)
		}
		if !known[key] {
			return nil, fmt.Errorf("unknown setting %q", key)
		}
		out[key] = value
	}
	return out, nil
}

// readConfigDoc loads the YAML config as a generic document so unrelated
// sections survive a rewrite. A missing file yields an empty document.
func readConfigDoc(path string) (map[string]interface{}, error) {
	doc := make(map[string]interface{})

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if doc == nil {
		doc = make(map[string]interface{})
	}
	return doc, nil
}
