package notify

// alarmCommand builds a critical notify-send call that stays on screen and
// prints the chosen action id.
func alarmCommand(notice Notice) (string, []string) {
	return "notify-send", []string{
		"--app-name=reminder",
		"--urgency=critical",
		"--expire-time=0",
		"--icon=alarm-symbolic",
		"--action=" + DefaultAction + "=Open",
		"--action=" + StopAction + "=Stop",
		"--wait",
		notice.Title,
		notice.Body,
	}
}

// hintCommand builds a normal notify-send call.
func hintCommand(notice Notice) (string, []string) {
	return "notify-send", []string{
		"--app-name=reminder",
		notice.Title,
		notice.Body,
	}
}
