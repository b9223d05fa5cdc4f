package main

import "navpanel/cmd/cli/command"

func main() {
	command.Execute()
}
