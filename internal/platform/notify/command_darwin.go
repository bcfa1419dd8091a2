package notify

import (
	"fmt"
	"strconv"
)

// alarmCommand builds an osascript notification with the default sound.
// macOS notifications posted this way carry no actions.
func alarmCommand(notice Notice) (string, []string) {
	script := fmt.Sprintf("display notification %s with title %s sound name \"default\"",
		strconv.Quote(notice.Body), strconv.Quote(notice.Title))

	return "osascript", []string{"-e", script}
}

// hintCommand builds a silent osascript notification.
func hintCommand(notice Notice) (string, []string) {
	script := fmt.Sprintf("display notification %s with title %s",
		strconv.Quote(notice.Body), strconv.Quote(notice.Title))

	return "osascript", []string{"-e", script}
}
