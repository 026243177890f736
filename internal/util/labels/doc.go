// Package labels provides consistent labeling for provider resources.
//
// All labels use the surfspot.io domain prefix and follow a builder pattern
// for constructing label sets with the workspace name and manager
// identification.
package labels
