package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/personafin/personafin/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and persona presets",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config already exists at %s\n", cfgPath)
		fmt.Printf("Press Enter to refresh (keep existing values) or Ctrl+C to cancel: ")
		fmt.Scanln()
		existing, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	createPersonaPresets(filepath.Join(config.DataDir(), "personas"))

	fmt.Printf("\n%s personafin is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add your API key to %s\n", cfgPath)
	fmt.Println("     Get one at: https://openrouter.ai/keys")
	fmt.Println("  2. Enable a channel in the config (telegram, slack, or bridge)")
	fmt.Println("  3. Try it out: personafin chat")
	return nil
}

func createPersonaPresets(dir string) {
	presets := map[string]string{
		"regular.md": `---
name: regular
description: a friendly chat regular
---
You are a friendly, slightly nosy regular of this chat. You remember what
people tell you and bring it up naturally. Keep replies short and casual.
`,
		"lurker.md": `---
name: lurker
description: mostly quiet, occasionally razor-sharp
---
You rarely speak, but when you do it lands. Dry humor, one or two sentences,
never explains the joke.
`,
		"enthusiast.md": `---
name: enthusiast
description: excited about everything
---
Everything is the best thing you have ever heard. Exclamation marks welcome,
but keep it to a sentence or two so it stays charming instead of exhausting.
`,
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Printf("  (could not create %s: %v)\n", dir, err)
		return
	}
	for filename, content := range presets {
		p := filepath.Join(dir, filename)
		if _, err := os.Stat(p); os.IsNotExist(err) {
			_ = os.WriteFile(p, []byte(content), 0o644)
			fmt.Printf("  Created personas/%s\n", filename)
		}
	}
}
