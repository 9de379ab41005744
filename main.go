package main

import "github.com/nextlevelbuilder/leadline/cmd"

func main() {
	cmd.Execute()
}
