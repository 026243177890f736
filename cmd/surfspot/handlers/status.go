package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/imamik/surfspot/internal/provisioning"
)

// StatusOutput is the status command's JSON document.
type StatusOutput struct {
	Token     string           `json:"token,omitempty"`
	Workspace *WorkspaceStatus `json:"workspace,omitempty"`
	Lookup    *LookupStatus    `json:"lookup,omitempty"`
}

// WorkspaceStatus describes the recorded workspace and whether it still
// exists.
type WorkspaceStatus struct {
	Name    string `json:"name"`
	ID      string `json:"id,omitempty"`
	Live    bool   `json:"live"`
	Address string `json:"address,omitempty"`
}

// LookupStatus is the last written lookup snapshot.
type LookupStatus struct {
	Name      string    `json:"name,omitempty"`
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	FQDN      string    `json:"fqdn,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Status handles the status command.
//
// It prints the persisted change token, the recorded workspace and the
// provider's live view of it, either as text or as JSON.
func Status(ctx context.Context, g Globals, jsonOutput bool) error {
	cfg, closer, err := loadConfig(g)
	defer func() { _ = closer.Close() }()
	if err != nil {
		return err
	}

	orc, err := buildOrchestrator(ctx, cfg, buildOptions{})
	if err != nil {
		return err
	}

	st, err := orc.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	out := buildStatusOutput(st)
	if jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printStatus(out)
	return nil
}

func buildStatusOutput(st *provisioning.Status) *StatusOutput {
	out := &StatusOutput{Token: st.Token}

	if st.WorkspaceName != "" {
		ws := &WorkspaceStatus{Name: st.WorkspaceName, ID: st.WorkspaceID}
		if st.Live != nil {
			ws.Live = true
			ws.Address = st.Live.Address
			if ws.ID == "" {
				ws.ID = st.Live.ID
			}
		}
		out.Workspace = ws
	}

	if st.Lookup != nil {
		out.Lookup = &LookupStatus{
			Name:      st.Lookup.Name,
			ID:        st.Lookup.WorkspaceID,
			Address:   st.Lookup.IP,
			FQDN:      st.Lookup.FQDN,
			Timestamp: st.Lookup.Timestamp,
		}
	}
	return out
}

func printStatus(out *StatusOutput) {
	token := out.Token
	if token == "" {
		token = "(none)"
	}
	_, _ = fmt.Fprintf(stdout, "Last change: %s\n", token)

	if ws := out.Workspace; ws != nil {
		state := "gone"
		if ws.Live {
			state = "live"
		}
		_, _ = fmt.Fprintf(stdout, "Workspace:   %s (%s, %s)\n", ws.Name, valueOr(ws.ID, "no id"), state)
		if ws.Address != "" {
			_, _ = fmt.Fprintf(stdout, "Address:     %s\n", ws.Address)
		}
	} else {
		_, _ = fmt.Fprintln(stdout, "Workspace:   (none recorded)")
	}

	if l := out.Lookup; l != nil {
		_, _ = fmt.Fprintf(stdout, "Lookup:      %s at %s (%s)\n", l.ID, l.Address, l.Timestamp.Format(time.RFC3339))
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
