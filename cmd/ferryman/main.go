package main

import "github.com/ferrymanlabs/ferryman/internal/cli"

func main() {
	cli.Execute()
}
