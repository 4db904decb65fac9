package main

import "github.com/twiced-technology-gmbh/protodo/cmd"

func main() {
	cmd.Execute()
}
