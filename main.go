package main

import "github.com/vesperiatools/cmd"

func main() {
	cmd.Execute()
}
