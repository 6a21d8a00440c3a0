package main

import "github.com/uniwebdev/staffsearch/cmd"

func main() {
	cmd.Execute()
}
