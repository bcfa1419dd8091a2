package main

import "github.com/oshokin/reminder/cmd/reminderd/cmd"

func main() {
	cmd.Execute()
}
