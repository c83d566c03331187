package main

import "github.com/forPelevin/topicreel/internal/cli"

func main() {
	cli.Main()
}
