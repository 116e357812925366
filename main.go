package main

import "github.com/Mohsinsiddi/w3invoke/cmd"

func main() {
	cmd.Execute()
}
