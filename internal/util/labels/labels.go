package labels

import "maps"

// Standard label keys for provider resources.
const (
	// KeyWorkspace identifies which workspace a resource belongs to
	KeyWorkspace = "surfspot.io/workspace"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "surfspot.io/managed-by"

	// KeyChange records the change token that triggered the workspace
	KeyChange = "surfspot.io/change"
)

// ManagedBySurfspot is the managed-by value for resources surfspot creates.
const ManagedBySurfspot = "surfspot"

// maxValueLength is the Hetzner Cloud label value limit.
const maxValueLength = 63

// LabelBuilder provides a fluent interface for building resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the workspace name
// pre-set. An empty name only sets the managed-by label.
func NewLabelBuilder(workspaceName string) *LabelBuilder {
	lb := &LabelBuilder{
		labels: map[string]string{
			KeyManagedBy: ManagedBySurfspot,
		},
	}
	if workspaceName != "" {
		lb.labels[KeyWorkspace] = workspaceName
	}
	return lb
}

// WithChange records the triggering change token, truncated to the label
// value limit.
func (lb *LabelBuilder) WithChange(token string) *LabelBuilder {
	if token == "" {
		return lb
	}
	if len(token) > maxValueLength {
		token = token[:maxValueLength]
	}
	lb.labels[KeyChange] = token
	return lb
}

// WithManagedBy sets who manages this resource.
func (lb *LabelBuilder) WithManagedBy(manager string) *LabelBuilder {
	lb.labels[KeyManagedBy] = manager
	return lb
}

// Merge adds all labels from the provided map. Existing surfspot.io keys
// are not overwritten.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		if _, reserved := lb.labels[k]; reserved {
			continue
		}
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	return maps.Clone(lb.labels)
}

// SelectorManaged returns a label selector for every resource surfspot
// manages.
func SelectorManaged() string {
	return KeyManagedBy + "=" + ManagedBySurfspot
}

// SelectorForWorkspace returns a label selector for one workspace.
func SelectorForWorkspace(name string) string {
	return KeyWorkspace + "=" + name
}
