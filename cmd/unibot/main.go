package main

import "github.com/babariviere/unibot/internal/cli"

func main() {
	cli.Execute()
}
