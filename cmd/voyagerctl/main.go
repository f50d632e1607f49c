package main

import "github.com/voyager-travel/voyager/cmd/voyagerctl/cli"

func main() {
	cli.Execute()
}
