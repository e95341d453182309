package main

import "github.com/mcoot/territorybattle/internal/cli"

func main() {
	cli.Execute()
}
