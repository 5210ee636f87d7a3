package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/crease/match-engine/internal/model"
	"github.com/crease/match-engine/internal/scoring"
)

// ValidationResult is reported for a snapshot that loads.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	MatchID  string            `json:"match_id,omitempty"`
	Title    string            `json:"title"`
	Status   model.MatchStatus `json:"status"`
	Commands int               `json:"commands"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <snapshot.json>",
		Short: "Check that a saved match snapshot can be loaded",
		Long: `Check a match snapshot, as exported by the server or by "scorer score --out",
against the invariants the engine requires before it resumes scoring.

Exit codes:
  0 - Snapshot is valid
  1 - Snapshot is rejected by the engine
  2 - File unreadable or not JSON`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	snap, err := readSnapshot(f, path)
	if err != nil {
		return err
	}
	loaded, err := scoring.LoadMatch(snap)
	if err != nil {
		return f.Fail(ExitFailure, string(scoring.CodeOf(err)), err.Error(), nil)
	}

	result := ValidationResult{
		Valid:    true,
		MatchID:  loaded.MatchID,
		Title:    model.Title(loaded),
		Status:   loaded.Status,
		Commands: len(loaded.Log),
	}
	return f.Success(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "✓ snapshot valid: %s (%s, %d logged commands)\n",
			result.Title, result.Status, result.Commands)
		return err
	})
}

// readSnapshot decodes the snapshot at path, reporting failures through f.
func readSnapshot(f *OutputFormatter, path string) (*model.MatchState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeRead, err.Error(), nil)
	}
	var snap model.MatchState
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeParse, fmt.Sprintf("decode snapshot: %v", err), nil)
	}
	return &snap, nil
}
