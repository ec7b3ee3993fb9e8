package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// LoadFromDirectory registers every prompt JSON file found under dir, replacing the
// built-in template with the same ID.
// Expected structure:
//
//	dir/
//	  structured/
//	    health.json
//	  narrative/
//	    summary.json
//
// A file without an ID gets one derived from its name ("health.json" -> "analysis.health").
func LoadFromDirectory(r *Registry, dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, fmt.Errorf("prompts directory not found: %s", dir)
	}

	loaded := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and non-JSON files
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		var pt PromptTemplate
		if err := json.Unmarshal(data, &pt); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		if pt.ID == "" {
			pt.ID = generateIDFromPath(path)
		}
		if pt.Category == "" {
			pt.Category = detectCategory(path, dir)
		}
		if pt.UserPromptTmpl == "" {
			return fmt.Errorf("%s: user_prompt_template is empty", path)
		}

		// Keep the built-in system prompt when the override leaves it out.
		if pt.SystemPrompt == "" {
			if existing, err := r.GetPrompt(pt.ID); err == nil {
				pt.SystemPrompt = existing.SystemPrompt
			}
		}

		if err := r.Register(&pt); err != nil {
			return fmt.Errorf("failed to register %s: %w", pt.ID, err)
		}
		loaded++
		return nil
	})
	if err != nil {
		return loaded, err
	}

	log.Info().Int("overrides", loaded).Str("dir", dir).Msg("prompt templates loaded")
	return loaded, nil
}

// generateIDFromPath maps "any/dir/health.json" to "analysis.health".
func generateIDFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	return Kind(name).ID()
}

// detectCategory extracts the category from the folder structure
func detectCategory(path string, baseDir string) string {
	relPath, _ := filepath.Rel(baseDir, path)
	parts := strings.Split(relPath, string(filepath.Separator))
	if len(parts) > 1 {
		return parts[0]
	}
	return "default"
}
