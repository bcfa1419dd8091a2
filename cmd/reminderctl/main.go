package main

import "github.com/oshokin/reminder/cmd/reminderctl/cmd"

func main() {
	cmd.Execute()
}
