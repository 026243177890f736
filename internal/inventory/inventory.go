// Package inventory maintains the Ansible inventory file that hands a
// provisioned workspace to the configuration step.
//
// The file is INI-style: a "[group]" header followed by one host line per
// workspace, "<address> key=value ...". Lines outside the managed group
// are preserved untouched.
package inventory

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imamik/surfspot/internal/util/atomicfile"
	"github.com/imamik/surfspot/internal/util/naming"
)

// DefaultGroup is the inventory group the playbook targets.
const DefaultGroup = "myhosts"

// Param is one connection parameter of a host line.
type Param struct {
	Key   string
	Value string
}

// Entry is a host line.
type Entry struct {
	Address string
	Params  []Param
}

// NewEntry builds the entry for a workspace reached as user with the
// private key at keyPath.
func NewEntry(address, user, keyPath string) Entry {
	return Entry{
		Address: address,
		Params: []Param{
			{Key: "ansible_user", Value: user},
			{Key: "ansible_ssh_private_key_file", Value: keyPath},
		},
	}
}

// String renders the host line.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Address)
	for _, p := range e.Params {
		if p.Value == "" {
			continue
		}
		fmt.Fprintf(&b, " %s=%s", p.Key, p.Value)
	}
	return b.String()
}

// File is an inventory file on disk.
type File struct {
	path  string
	group string
}

// New returns the inventory at path managing group.
func New(path, group string) *File {
	if group == "" {
		group = DefaultGroup
	}
	return &File{path: path, group: group}
}

// Path returns the inventory file path.
func (f *File) Path() string { return f.path }

// Ensure makes sure entry is listed under the group. It writes the header
// when missing, appends the line when absent and replaces a line for the
// same address with different parameters. It reports whether the file
// changed. When pruneOthers is set, host lines for other addresses in
// the group are removed.
func (f *File) Ensure(entry Entry, pruneOthers bool) (bool, error) {
	if entry.Address == "" {
		return false, fmt.Errorf("inventory entry has no address")
	}

	lines, err := f.read()
	if err != nil {
		return false, err
	}

	header := naming.InventoryGroup(f.group)
	want := entry.String()

	start, end := f.groupBounds(lines, header)
	if start < 0 {
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
			lines = append(lines, "")
		}
		lines = append(lines, header, want)
		return true, f.write(lines)
	}

	var section []string
	present := false
	changed := false
	for _, line := range lines[start+1 : end] {
		addr := hostAddress(line)
		switch {
		case addr == "":
			section = append(section, line)
		case addr == entry.Address:
			if present {
				changed = true
				continue
			}
			present = true
			if strings.TrimSpace(line) != want {
				changed = true
			}
			section = append(section, want)
		case pruneOthers:
			changed = true
		default:
			section = append(section, line)
		}
	}
	if !present {
		section = insertBeforeTrailingBlank(section, want)
		changed = true
	}
	if !changed {
		return false, nil
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:start+1]...)
	out = append(out, section...)
	out = append(out, lines[end:]...)
	return true, f.write(out)
}

// Addresses returns the host addresses listed under the group.
func (f *File) Addresses() ([]string, error) {
	lines, err := f.read()
	if err != nil {
		return nil, err
	}
	start, end := f.groupBounds(lines, naming.InventoryGroup(f.group))
	if start < 0 {
		return nil, nil
	}
	var out []string
	for _, line := range lines[start+1 : end] {
		if addr := hostAddress(line); addr != "" {
			out = append(out, addr)
		}
	}
	return out, nil
}

// groupBounds returns the header index and the index one past the last
// line of the group, or -1 when the group is absent.
func (f *File) groupBounds(lines []string, header string) (int, int) {
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == header {
			start = i
			break
		}
	}
	if start < 0 {
		return -1, -1
	}
	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "[") {
			end = i
			break
		}
	}
	return start, end
}

func (f *File) read() ([]string, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open inventory %s: %w", f.path, err)
	}
	defer func() { _ = fh.Close() }()

	var lines []string
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read inventory %s: %w", f.path, err)
	}
	return lines, nil
}

func (f *File) write(lines []string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("failed to create inventory directory: %w", err)
	}
	data := strings.Join(lines, "\n") + "\n"
	if err := atomicfile.Write(f.path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("failed to write inventory %s: %w", f.path, err)
	}
	return nil
}

// hostAddress returns the first token of a host line, or "" for blank
// lines and comments.
func hostAddress(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
		return ""
	}
	return strings.Fields(trimmed)[0]
}

func insertBeforeTrailingBlank(section []string, line string) []string {
	i := len(section)
	for i > 0 && strings.TrimSpace(section[i-1]) == "" {
		i--
	}
	out := make([]string, 0, len(section)+1)
	out = append(out, section[:i]...)
	out = append(out, line)
	out = append(out, section[i:]...)
	return out
}
