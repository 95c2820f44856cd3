package cli

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/efisim/wavecheck/internal/config"
	"github.com/efisim/wavecheck/internal/errors"
	"github.com/efisim/wavecheck/internal/output"
	"github.com/efisim/wavecheck/internal/project"
	"github.com/efisim/wavecheck/scenarios"
)

// exampleScenario is the built-in scenario copied into a new project.
const exampleScenario = "06-ford-aspire.yaml"

// scenariosDirName is the scenario directory created by init.
const scenariosDirName = "scenarios"

// cmdInit initializes a wavecheck project in the current directory.
// This command is idempotent - it only creates files that don't exist.
func cmdInit(args []string) int {
	for _, arg := range args {
		switch arg {
		case "-h", "--help":
			printInitUsage()
			return 0
		default:
			out.ErrorPrefix("init: unexpected argument %q", arg)
			return errors.ExitConfigError
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitFailure
	}

	created, err := initProject(cwd)
	if err != nil {
		out.ErrorPrefix("init: %v", err)
		return errors.ExitFailure
	}

	w := output.New()
	if len(created) == 0 {
		w.Info("Project already initialized (nothing to do)")
		return 0
	}
	w.Success("Initialized wavecheck project in %s", cwd)
	w.HelpSection("Created:")
	w.List(created)
	printNextSteps(w)
	return 0
}

// initProject creates wavecheck.json, the scenario directory with one
// example scenario, and .gitignore entries. It returns what it created.
func initProject(root string) ([]string, error) {
	var created []string

	configPath := filepath.Join(root, project.ConfigFileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &config.Config{
			Scenarios: &config.ScenariosConfig{Directory: scenariosDirName},
			History:   &config.HistoryConfig{Backend: config.DefaultHistoryBackend},
		}
		if sim, ok := project.DetectSimulator(root); ok {
			if rel, err := filepath.Rel(root, sim); err == nil {
				sim = "./" + filepath.ToSlash(rel)
			}
			cfg.Simulator.Command = sim
		}

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return created, err
		}
		data = append(data, '\n')
		if err := os.WriteFile(configPath, data, 0644); err != nil {
			return created, err
		}
		created = append(created, project.ConfigFileName)
	}

	dir := filepath.Join(root, scenariosDirName)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return created, err
		}
		data, err := fs.ReadFile(scenarios.FS, exampleScenario)
		if err != nil {
			return created, err
		}
		if err := os.WriteFile(filepath.Join(dir, exampleScenario), data, 0644); err != nil {
			return created, err
		}
		created = append(created, scenariosDirName+"/"+exampleScenario)
	}

	if updateGitignore(root) {
		created = append(created, ".gitignore entries")
	}
	return created, nil
}

// updateGitignore adds wavecheck entries to .gitignore. It reports whether
// the file changed.
func updateGitignore(root string) bool {
	gitignorePath := filepath.Join(root, ".gitignore")

	entries := []string{
		"# wavecheck",
		config.DefaultHistoryPath,
	}

	existingContent := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existingContent = string(data)
	}
	if strings.Contains(existingContent, "# wavecheck") {
		return false
	}

	var content strings.Builder
	if existingContent != "" {
		content.WriteString(existingContent)
		if !strings.HasSuffix(existingContent, "\n") {
			content.WriteString("\n")
		}
		content.WriteString("\n")
	}
	for _, entry := range entries {
		content.WriteString(entry)
		content.WriteString("\n")
	}

	if err := os.WriteFile(gitignorePath, []byte(content.String()), 0644); err != nil {
		out.WarningSimple("could not update .gitignore: %v", err)
		return false
	}
	return true
}

func printInitUsage() {
	w := output.New()

	w.HelpTitle("wavecheck init - create a wavecheck project")

	w.HelpSection("Usage:")
	w.HelpUsage("wavecheck init")

	w.HelpSection("Description:")
	w.Println("  Creates %s, a %s/ directory with an example scenario,", project.ConfigFileName, scenariosDirName)
	w.Println("  and .gitignore entries. Existing files are left alone.")
	w.Println("")
}

// printNextSteps prints helpful guidance after initialization.
func printNextSteps(w *output.Writer) {
	w.HelpSection("Next steps:")
	w.Step(1, "Set simulator.command in %s", project.ConfigFileName)
	w.StepDetail("or simulator.addr to use a simulator that is already running")
	w.Step(2, "Run 'wavecheck validate' to check the configuration and scenarios")
	w.Step(3, "Run 'wavecheck run' to run the suite")
	w.Println("")
}
