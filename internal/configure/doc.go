// Package configure runs the downstream configuration step against a
// provisioned workspace.
//
// The step is an external Ansible playbook run synchronously; only its
// exit status is interpreted. Its output is streamed through to the
// caller's writers so operators see playbook progress live.
package configure
