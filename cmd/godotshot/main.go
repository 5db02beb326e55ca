package main

import "github.com/bryanchriswhite/godotshot/cmd/godotshot/commands"

func main() {
	commands.Execute()
}
