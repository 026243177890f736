// Package prerequisites checks that the external tools a cycle shells out
// to are installed.
package prerequisites

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name or path to look for.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string
}

const ansibleInstallURL = "https://docs.ansible.com/ansible/latest/installation_guide/"

// ConfigurationTools returns the tools the configuration step needs.
// binary is the configured playbook runner.
func ConfigurationTools(binary string) []Tool {
	if binary == "" {
		binary = "ansible-playbook"
	}
	return []Tool{
		{
			Name:        binary,
			Required:    true,
			Description: "Runs the configuration playbook against each workspace",
			InstallURL:  ansibleInstallURL,
		},
	}
}

// OptionalTools returns tools that are useful but not required.
func OptionalTools() []Tool {
	return []Tool{
		{
			Name:        "ssh",
			Required:    false,
			Description: "Useful for inspecting workspaces left in place after a failed cycle",
			InstallURL:  "https://www.openssh.com/",
		},
	}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// Check verifies that the specified tools are available. When
// withVersion is set, each found tool is asked for its --version.
func Check(tools []Tool, withVersion bool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := exec.LookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
			if withVersion {
				result.Version = toolVersion(path)
			}
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// CheckConfiguration checks the configuration tools for binary.
func CheckConfiguration(binary string) *CheckResults {
	return Check(ConfigurationTools(binary), false)
}

// toolVersion returns the first line of `path --version`, or "".
func toolVersion(path string) string {
	// #nosec G204 - path comes from exec.LookPath on a configured tool name
	output, err := exec.Command(path, "--version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line)
}
