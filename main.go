package main

import "github.com/Mohsinsiddi/w3token/cmd"

func main() {
	cmd.Execute()
}
