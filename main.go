package main

import "github.com/bstdenis/xscen/cmd"

func main() {
	cmd.Execute()
}
