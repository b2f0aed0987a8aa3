package main

import "github.com/black-desk/dirwatch/cmd/dirwatch/cmd"

func main() {
	cmd.Execute()
}
