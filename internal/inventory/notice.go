package inventory

import (
	"fmt"

	"github.com/assetdesk/assetdesk/internal/model"
)

// Notice levels.
const (
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notice is a user-facing notification.
type Notice struct {
	Level   string
	Title   string
	Message string
}

// ImportNotice summarizes an import result, e.g. "2 items created, 1 rows
// had errors". It is a warning when any row failed.
func ImportNotice(result model.ImportResult) Notice {
	n := Notice{
		Level:   LevelSuccess,
		Title:   "Import finished",
		Message: fmt.Sprintf("%d items created", len(result.Created)),
	}
	if len(result.Errors) > 0 {
		n.Level = LevelWarning
		n.Message += fmt.Sprintf(", %d rows had errors", len(result.Errors))
	}
	return n
}

// ErrorNotice reports a failed action.
func ErrorNotice(title, message string) Notice {
	return Notice{Level: LevelError, Title: title, Message: message}
}

// SuccessNotice reports a completed action.
func SuccessNotice(title, message string) Notice {
	return Notice{Level: LevelSuccess, Title: title, Message: message}
}
