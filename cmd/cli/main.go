package main

import "storehub/cmd/cli/command"

func main() {
	command.Execute()
}
