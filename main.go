package main

import "github.com/brogergvhs/pocketbot/cmd"

func main() {
	cmd.Execute()
}
