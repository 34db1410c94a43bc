package main

import "github.com/learitecnico/learion-glass-sub000/cmd"

func main() {
	cmd.Execute()
}
