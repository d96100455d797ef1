package cmd

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRunSearch_Text(t *testing.T) {
	withIndexedWorkspace(t)
	t.Setenv("COLUMNS", "100")

	output := captureStdout(t, func() {
		if err := runSearch(searchCmd, []string{"release"}); err != nil {
			t.Fatalf("runSearch error: %v", err)
		}
	})

	for _, want := range []string{
		"Messages (2) in Engineering",
		"#release",
		"Release notes for v1.2",
		"Files (2, All)",
		"release-notes.pdf",
		"2.0 kB",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
	if strings.Index(output, "checklist") > strings.Index(output, "Release notes") {
		t.Errorf("expected newest message first, got:\n%s", output)
	}
}

func TestRunSearch_JSONWithFilter(t *testing.T) {
	withIndexedWorkspace(t)
	searchJSON = true
	searchFilter = "documents"

	output := captureStdout(t, func() {
		if err := runSearch(searchCmd, []string{"release"}); err != nil {
			t.Fatalf("runSearch error: %v", err)
		}
	})

	var resp searchResponse
	if err := json.Unmarshal([]byte(output), &resp); err != nil {
		t.Fatalf("invalid JSON %q: %v", output, err)
	}
	if resp.Term != "release" || resp.TeamID != "eng" || resp.Filter != "documents" {
		t.Errorf("unexpected header fields: %+v", resp)
	}
	if len(resp.Messages) != 2 || resp.Messages[0].PostID != "p2" {
		t.Errorf("messages = %+v, want p2 then p1", resp.Messages)
	}
	if len(resp.Files) != 1 || resp.Files[0].Name != "release-notes.pdf" {
		t.Errorf("files = %+v, want only release-notes.pdf", resp.Files)
	}
	if len(resp.FileChannelIDs) != 1 || resp.FileChannelIDs[0] != "c-release" {
		t.Errorf("file_channel_ids = %v, want [c-release]", resp.FileChannelIDs)
	}
}

func TestRunSearch_OtherTeam(t *testing.T) {
	withIndexedWorkspace(t)
	teamFlag = "Operations"
	searchJSON = true

	output := captureStdout(t, func() {
		if err := runSearch(searchCmd, []string{"rollback"}); err != nil {
			t.Fatalf("runSearch error: %v", err)
		}
	})

	var resp searchResponse
	if err := json.Unmarshal([]byte(output), &resp); err != nil {
		t.Fatalf("invalid JSON %q: %v", output, err)
	}
	if resp.TeamID != "ops" || len(resp.Messages) != 1 || resp.Messages[0].PostID != "p3" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestRunSearch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func()
		args    []string
		wantErr string
	}{
		{"unknown team", func() { teamFlag = "sales" }, []string{"release"}, `unknown team "sales"`},
		{"invalid filter", func() { searchFilter = "movies" }, []string{"release"}, "movies"},
		{"blank term", func() {}, []string{"  "}, "nothing to search for"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withIndexedWorkspace(t)
			tt.setup()

			var err error
			captureStdout(t, func() { err = runSearch(searchCmd, tt.args) })
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("runSearch() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunSearch_EmptyIndex(t *testing.T) {
	withTestEnv(t)

	err := runSearch(searchCmd, []string{"release"})
	if err != errNoTeams {
		t.Errorf("runSearch() error = %v, want errNoTeams", err)
	}
}
