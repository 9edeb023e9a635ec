package main

import "github.com/mikey/email-vetter/cmd/vet-cli/commands"

func main() {
	commands.Execute()
}
