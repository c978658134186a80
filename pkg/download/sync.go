package download

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/hydromet/meteosat/internal/logger"
	pkgerrors "github.com/hydromet/meteosat/pkg/errors"
)

// DefaultRcloneCommand is the sync tool binary looked up on PATH.
const DefaultRcloneCommand = "rclone"

// RcloneSyncer runs "rclone copyto" for a single object.
type RcloneSyncer struct {
	Command string   // binary, defaults to DefaultRcloneCommand
	Flags   []string // extra flags, e.g. --drive-shared-with-me
}

// NewRcloneSyncer returns a syncer using the given binary and extra flags.
func NewRcloneSyncer(command string, flags ...string) *RcloneSyncer {
	return &RcloneSyncer{Command: command, Flags: flags}
}

// Args returns the argument list passed to the tool.
func (s *RcloneSyncer) Args(remote, dest string) []string {
	args := make([]string, 0, len(s.Flags)+4)
	args = append(args, "copyto", "-v")
	args = append(args, s.Flags...)
	return append(args, remote, dest)
}

// Sync implements Syncer. A non-zero exit, or a binary that cannot be
// started, is reported as *errors.SyncToolError.
func (s *RcloneSyncer) Sync(ctx context.Context, remote, dest string) error {
	command := s.Command
	if command == "" {
		command = DefaultRcloneCommand
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, command, s.Args(remote, dest)...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.Debug("running sync tool", logger.Fields{"tool": command, "remote": remote})
	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &pkgerrors.SyncToolError{Tool: command, ExitCode: -1, Output: out.String(), Err: ctxErr}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &pkgerrors.SyncToolError{Tool: command, ExitCode: exitErr.ExitCode(), Output: out.String(), Err: err}
	}
	return &pkgerrors.SyncToolError{Tool: command, ExitCode: -1, Err: err}
}
