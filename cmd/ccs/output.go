package main

import (
	"encoding/json"
	"fmt"
	"os"

	coreerrors "github.com/yeah705-lgtm/ccs-sub000/core/errors"
)

// errorEnvelope is the JSON error shape shared by every subcommand, carrying
// the classification so scripted callers can branch on category.
type errorEnvelope struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	Category  string `json:"error_category,omitempty"`
	Code      string `json:"error_code,omitempty"`
	Hint      string `json:"hint,omitempty"`
	Retryable bool   `json:"retryable"`
}

func writeJSONOutput(output any) int {
	encoded, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Println(`{"ok":false,"error":"failed to encode output"}`)
		return exitFailure
	}
	fmt.Println(string(encoded))
	return exitOK
}

func writeError(jsonOutput bool, err error) int {
	exitCode := exitCodeForError(err)
	if jsonOutput {
		encoded, marshalErr := json.MarshalIndent(errorEnvelope{
			Error:     err.Error(),
			Category:  string(coreerrors.CategoryOf(err)),
			Code:      coreerrors.CodeOf(err),
			Hint:      coreerrors.HintOf(err),
			Retryable: coreerrors.RetryableOf(err),
		}, "", "  ")
		if marshalErr != nil {
			fmt.Println(`{"ok":false,"error":"failed to encode error"}`)
			return exitCode
		}
		fmt.Println(string(encoded))
		return exitCode
	}
	fmt.Fprintf(os.Stderr, "ccs: %v\n", err)
	if hint := coreerrors.HintOf(err); hint != "" {
		fmt.Fprintf(os.Stderr, "ccs: hint: %s\n", hint)
	}
	return exitCode
}

func exitCodeForError(err error) int {
	switch coreerrors.CategoryOf(err) {
	case coreerrors.CategoryInvalidInput:
		return exitInvalidInput
	case coreerrors.CategoryLockContention:
		return exitLockContention
	case coreerrors.CategoryMigrationFailed, coreerrors.CategoryRollbackFailed:
		return exitMigrationFailed
	default:
		return exitFailure
	}
}
