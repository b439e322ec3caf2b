package log

import (
	"fmt"
	"os"
)

type RevertResult struct {
	Operation OperationLog
	Success   bool
	// Skipped is set for operations with nothing on disk to revert.
	Skipped bool
	Error   error
}

// RevertOperation removes what a logged operation left on disk.
func RevertOperation(op OperationLog) RevertResult {
	result := RevertResult{Operation: op}

	switch op.Type {
	case OpWriteScript:
		if op.DestPath == "" {
			result.Error = fmt.Errorf("cannot revert script write: path missing")
			return result
		}
		info, err := os.Stat(op.DestPath)
		if os.IsNotExist(err) {
			result.Success = true
			return result
		}
		if err == nil && info.IsDir() {
			result.Error = fmt.Errorf("path %s is a directory", op.DestPath)
			return result
		}
		if err := os.Remove(op.DestPath); err != nil {
			result.Error = fmt.Errorf("failed to remove script %s: %w", op.DestPath, err)
			return result
		}
		result.Success = true

	case OpCreateDir:
		if op.DestPath == "" {
			result.Error = fmt.Errorf("cannot revert directory creation: path missing")
			return result
		}
		info, err := os.Stat(op.DestPath)
		if os.IsNotExist(err) {
			result.Success = true
			return result
		}
		if err != nil || !info.IsDir() {
			result.Error = fmt.Errorf("path %s is not a directory", op.DestPath)
			return result
		}
		entries, err := os.ReadDir(op.DestPath)
		if err != nil {
			result.Error = fmt.Errorf("failed to read directory %s: %w", op.DestPath, err)
			return result
		}
		if len(entries) > 0 {
			result.Error = fmt.Errorf("cannot remove directory %s: not empty", op.DestPath)
			return result
		}
		if err := os.Remove(op.DestPath); err != nil {
			result.Error = fmt.Errorf("failed to remove directory %s: %w", op.DestPath, err)
			return result
		}
		result.Success = true

	case OpShorten, OpLookup:
		result.Skipped = true

	default:
		result.Error = fmt.Errorf("unknown operation type: %s", op.Type)
	}

	return result
}

// RevertSession reverts successful operations newest first, so files go
// before the directories holding them.
func RevertSession(session *LogSession) (successful int, failed int, errors []error) {
	for i := len(session.Operations) - 1; i >= 0; i-- {
		op := session.Operations[i]
		if !op.Success {
			continue
		}

		result := RevertOperation(op)
		switch {
		case result.Skipped:
		case result.Success:
			successful++
		default:
			failed++
			if result.Error != nil {
				errors = append(errors, result.Error)
			}
		}
	}
	return successful, failed, errors
}
