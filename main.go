package main

import "github.com/Mohsinsiddi/w3penalty/cmd"

func main() {
	cmd.Execute()
}
